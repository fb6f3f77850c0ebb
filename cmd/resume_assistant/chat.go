package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/assistant"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/observability"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

var chatCommand = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the résumé coach in the terminal",
	Long: `Starts an interactive coaching chat. Every reply is saved as a snapshot in the
snapshot directory and recorded in session_history.json.

Commands:
  upload <path>               send a PDF or Word file to the coach
  open <path>                 same as upload
  can you open this: <path>   same as upload
  save                        show where the last reply was saved
  exit                        leave the chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var (
	chatDir    string
	chatStream bool
)

func init() {
	chatCommand.Flags().StringVarP(&chatDir, "dir", "d", "", "Snapshot directory (default: snapshot_dir from config)")
	chatCommand.Flags().BoolVar(&chatStream, "stream", true, "Print replies as they arrive")

	rootCmd.AddCommand(chatCommand)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dir := settings.SnapshotDir
	if cmd.Flags().Changed("dir") {
		dir = chatDir
	}
	store, err := snapshot.NewDirStore(dir)
	if err != nil {
		return err
	}

	client, err := newGeminiClient(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := assistant.NewSession(assistant.Options{
		Client:      client,
		Journal:     assistant.NewJournal(store, logger),
		Tier:        llm.TierStandard,
		InlineLimit: settings.InlineLimitBytes(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return chatLoop(cmd, session, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop reads commands from in until exit or end of input. Failed turns are
// reported and the loop continues.
func chatLoop(cmd *cobra.Command, session *assistant.Session, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	printer := observability.NewPrinter(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	_, _ = fmt.Fprintln(out, "Resume coach ready. Type 'upload <path>' to share your résumé, 'exit' to quit.")
	for {
		_, _ = fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var (
			turn *assistant.Turn
			err  error
		)
		switch c := assistant.ParseInput(line); c.Kind {
		case assistant.CommandExit:
			_, _ = fmt.Fprintln(out, "Goodbye!")
			return nil
		case assistant.CommandSave:
			if last := session.Last(); last != nil && last.File != "" {
				_, _ = fmt.Fprintf(out, "Last reply saved to %s\n", last.File)
			} else {
				_, _ = fmt.Fprintln(out, "Nothing saved yet.")
			}
			continue
		case assistant.CommandDocument:
			_, _ = fmt.Fprintf(out, "Sending %s...\n", c.Path)
			turn, err = session.SendDocument(ctx, c.Path)
			if turn != nil {
				printer.PrintReply(turn.Reply)
			}
		default:
			if chatStream {
				_, _ = fmt.Fprintln(out, "\nAssistant Response:")
				turn, err = session.SendStream(ctx, c.Text, func(chunk string) error {
					_, werr := fmt.Fprint(out, chunk)
					return werr
				})
				_, _ = fmt.Fprintln(out)
			} else {
				turn, err = session.Send(ctx, c.Text)
				if turn != nil {
					printer.PrintReply(turn.Reply)
				}
			}
		}

		if err != nil {
			logger.Warn("turn failed", "error", err)
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		}
		if turn != nil && settings.Verbose {
			printer.PrintUsage(turn.Usage)
		}
	}
}
