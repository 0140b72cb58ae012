package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// chatSession is what the terminal loop needs from the conversation driver.
type chatSession interface {
	Send(ctx context.Context, sessionID, message string) (string, error)
	Clear(ctx context.Context, sessionID string) error
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the scheduling agent in the terminal",
		Long: `Start an interactive conversation with the scheduling agent.

Type what you want to schedule, for example "lunch with Sam tomorrow at noon".
Type "clear" to start over and "exit" or "quit" to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			store := a.newChatStore()
			defer store.Stop()

			driver, _, err := a.newDriver(ctx, store)
			if err != nil {
				return err
			}

			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), driver, uuid.NewString())
		},
	}
}

// runREPL reads user lines from in until EOF, "exit" or "quit" and prints
// the agent's replies to out. A failed turn is reported and the loop goes on.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, chat chatSession, sessionID string) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "User: ")
		raw, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || raw == "") {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line := strings.TrimSpace(raw)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			if err := chat.Clear(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "Agent error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		reply, err := chat.Send(ctx, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "Agent error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Agent: %s\n", reply)
	}
}
