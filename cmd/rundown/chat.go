package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apiv1 "github.com/hrygo/rundown/server/router/api/v1"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant from the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = apiv1.NewSessionID()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, `RunDown chat. Type "@help" for commands, "exit" to quit.`)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
			resp, err := a.chat.Handle(ctx, sessionID, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, resp.Reply)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().String("session", "", "session id to resume")
}
