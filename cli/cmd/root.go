/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/pairchat/pb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	cfgFile           string
	grpcServerAddress string
	sessionClient     pb.SessionServiceClient
	grpcConn          *grpc.ClientConn
)

const (
	displayNameKey       = "display_name"
	grpcServerAddressKey = "grpc_server_address"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairchat-cli",
	Short: "Terminal client for pairchat",
	Long: `pairchat pairs you with a random stranger for a one-to-one chat.
Images you send disappear after 30 seconds.

Run 'chat' to start, or 'config <name>' to store your display name.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if grpcConn != nil {
			return nil
		}
		conn, err := grpc.NewClient(grpcServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("did not connect to gRPC server: %w", err)
		}
		grpcConn = conn
		sessionClient = pb.NewSessionServiceClient(conn)
		return nil
	},
}

// Execute runs one command from the arguments, or an interactive prompt when
// there are none.
func Execute() {
	defer func() {
		if grpcConn != nil {
			_ = grpcConn.Close()
		}
	}()

	// one-shot
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	// REPL
	fmt.Println("entering interactive mode, type 'exit' to quit")
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("❯❯❯ ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" || (line == "" && err != nil) {
			break
		}
		if line == "" {
			continue
		}
		args, err := shellwords.Parse(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pairchat.yaml)")
	rootCmd.PersistentFlags().String("grpc-server", "localhost:50051", "Address of the pairchat gRPC server")

	_ = viper.BindPFlag(grpcServerAddressKey, rootCmd.PersistentFlags().Lookup("grpc-server"))
	viper.SetDefault(grpcServerAddressKey, "localhost:50051")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pairchat" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pairchat")
	}

	viper.SetEnvPrefix("PAIRCHAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}

	grpcServerAddress = viper.GetString(grpcServerAddressKey)
}
