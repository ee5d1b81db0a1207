package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/memohq/memomirror/internal/server"
)

// NewCmdServe creates the serve command.
func NewCmdServe(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mirror HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *Options) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.New(server.Config{
		Addr:          rt.cfg.ListenAddr,
		AdminPassword: rt.cfg.GetAdminPassword(),
	}, rt.svc, rt.keeper)

	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("memomirror serving %s/%s on %s\n", rt.cfg.Owner, rt.cfg.Repo, srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return srv.Stop()
}
