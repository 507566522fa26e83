package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voxtalk/internal/ipc"
)

func main() {
	var socket string

	root := &cobra.Command{
		Use:           "voxtalk-ctl",
		Short:         "Control a running voxtalk-daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&socket, "socket", "s", ipc.DefaultSocketPath, "Control socket path")

	for _, c := range []struct{ name, short string }{
		{"start", "Start the conversation"},
		{"stop", "Stop the conversation and cut playback"},
		{"status", "Show whether a conversation is running"},
	} {
		cmd := c.name
		root.AddCommand(&cobra.Command{
			Use:   cmd,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cc *cobra.Command, _ []string) error {
				reply, err := ipc.SendCommand(socket, cmd)
				if err != nil {
					return fmt.Errorf("voxtalk-daemon not running: %w", err)
				}
				state := "stopped"
				if reply.Active {
					state = "active"
				}
				fmt.Fprintf(cc.OutOrStdout(), "%s (session %s, %d turns)\n", state, reply.Session, reply.Turns)
				return nil
			},
		})
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
