/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [new_display_name]",
	Short: "Gets or sets the display name.",
	Long: `Manages the pairchat client configuration file.
If called without arguments, it displays the current display name.
If called with an argument, it stores the display name used by 'chat'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			name := viper.GetString(displayNameKey)
			if name == "" {
				name = "(not set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Display Name: %s\n", name)
			fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\n", viper.GetString(grpcServerAddressKey))
			return nil
		}

		path, err := saveDisplayName(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Display name set to: %s (%s)\n", strings.TrimSpace(args[0]), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// saveDisplayName writes the name to the config file in use, creating
// $HOME/.pairchat.yaml when there is none yet.
func saveDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("display name must not be empty")
	}
	viper.Set(displayNameKey, name)

	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".pairchat.yaml")
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
