package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/ponyo877/pairchat/pb"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const helpText = "Commands: /next find a new partner, /leave leave the chat, /image <path> send an image, /quit exit"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chats with a random stranger in a tview-based interface",
	Long: `Joins the waiting pool and pairs you with a random stranger.
Type messages at the bottom and see the conversation above.

` + helpText,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		userName, _ := cmd.Flags().GetString("name")
		if userName == "" {
			userName = viper.GetString(displayNameKey)
		}
		userName = strings.TrimSpace(userName)
		if userName == "" {
			fmt.Println("Error: display name is not set.")
			fmt.Println("Set it with 'config <name>' or use the -n flag.")
			os.Exit(1)
		}

		if err := runChatUITview(sessionClient, userName); err != nil {
			fmt.Fprintf(os.Stderr, "Chat UI error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("name", "n", "", "Your name for the chat session (optional, defaults to display_name in config)")
}

func runChatUITview(client pb.SessionServiceClient, userName string) error {
	app := tview.NewApplication()

	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	inputField := tview.NewInputField().
		SetLabel(userName + " ❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(2000))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.Session(ctx)
	if err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	session := newChatSession(stream, userName)
	if err := session.join(); err != nil {
		return fmt.Errorf("failed to send join: %w", err)
	}
	fmt.Fprintf(textView, "[green]Welcome, %s! (Ctrl+C to exit)\n[gray]%s\n", tview.Escape(userName), helpText)

	printLine := func(line string) {
		app.QueueUpdateDraw(func() {
			fmt.Fprintln(textView, line)
			textView.ScrollToEnd()
		})
	}

	go func() {
		for {
			in, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				printLine("[red]Stream closed by server.")
				cancel()
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					printLine(fmt.Sprintf("[red]Error receiving event: %v", err))
				}
				cancel()
				return
			}
			frame, err := pb.FromStruct(in)
			if err != nil {
				printLine(fmt.Sprintf("[red]Invalid event: %v", err))
				continue
			}
			if line := session.handleEvent(frame, time.Now()); line != "" {
				printLine(line)
			}
		}
	}()

	inputField.SetChangedFunc(func(text string) {
		if err := session.setTyping(text != ""); err != nil {
			fmt.Fprintf(textView, "[red]Failed to send typing state: %v\n", err)
		}
	})

	// Send messages and commands when Enter is pressed
	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(inputField.GetText())
		if text == "" {
			return
		}
		inputField.SetText("")

		command, isCommand, err := parseInput(text)
		if err != nil {
			fmt.Fprintf(textView, "[red]%v\n", err)
			return
		}
		if !isCommand {
			if err := session.say(text); err != nil {
				fmt.Fprintf(textView, "[red]Failed to send message: %v\n", err)
				return
			}
			fmt.Fprintf(textView, "[white][%s] [green]%s[white]: %s\n", time.Now().Format(time.TimeOnly), tview.Escape(userName), tview.Escape(text))
			textView.ScrollToEnd()
			return
		}

		switch command.name {
		case "next":
			err = session.findNewChat()
		case "leave":
			err = session.leave()
		case "image":
			if len(command.args) != 1 {
				err = errors.New("usage: /image <path>")
				break
			}
			_, err = session.uploadImage(command.args[0])
		case "quit", "exit":
			cancel()
			app.Stop()
			return
		case "help":
			fmt.Fprintf(textView, "[gray]%s\n", helpText)
		default:
			err = fmt.Errorf("unknown command /%s", command.name)
		}
		if err != nil {
			fmt.Fprintf(textView, "[red]%v\n", err)
		}
	})

	// Exit on Ctrl+C
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.Run(); err != nil {
		cancel()
		return err
	}

	_ = stream.CloseSend()
	cancel()
	return nil
}
