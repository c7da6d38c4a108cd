// Command kvs-client is a one-shot CLI client for the ignitekv server:
// connect, send one request, print the response, exit.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ignitekv/ignitekv/internal/client"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "kvs-client",
		Short:         "Talk to an ignitekv server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:4000", "server address")

	root.AddCommand(
		newSetCmd(&addr),
		newGetCmd(&addr),
		newRmCmd(&addr),
	)

	return root
}

func newSetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value of a string key to a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Set(*addr, args[0], args[1])
		},
	}
}

func newGetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get the string value of a given string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := client.Get(*addr, args[0])
			if err != nil {
				if errors.Is(err, client.ErrKeyNotFound) {
					fmt.Println()
					return nil
				}
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
}

func newRmCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove a given key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Remove(*addr, args[0])
		},
	}
}
