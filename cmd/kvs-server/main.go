// Command kvs-server runs the ignitekv TCP server: one JSON request, one
// JSON response, per connection, against either the native log-structured
// engine or the bbolt-backed alternate.
package main

import (
	"fmt"
	"os"

	"github.com/ignitekv/ignitekv/internal/server"
	"github.com/ignitekv/ignitekv/pkg/ignitekv"
	"github.com/ignitekv/ignitekv/pkg/logger"
	"github.com/ignitekv/ignitekv/pkg/options"
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
	var engine string

	cmd := &cobra.Command{
		Use:           "kvs-server",
		Short:         "Run the ignitekv key/value server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, engine)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4000", "address to listen on")
	cmd.Flags().StringVar(&engine, "engine", "", `storage engine: "kvs" or "sled" (required)`)
	cmd.MarkFlagRequired("engine")

	return cmd
}

func run(addr, engineFlag string) error {
	log := logger.NewDevelopment("kvs-server")

	eng := options.Engine(engineFlag)
	if eng != options.EngineKVS && eng != options.EngineSled {
		return fmt.Errorf("unsupported engine %q", engineFlag)
	}

	log.Infow("starting kvs-server", "addr", addr, "engine", eng)

	db, err := ignitekv.Open(options.DefaultDataDir, options.WithEngine(eng))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(&server.Config{Addr: addr, Store: db, Logger: log})
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	return srv.Serve()
}
