package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mofox-ui/internal/logutil"
	"mofox-ui/pkg/server"
)

const (
	defaultListen       = "127.0.0.1:8000"
	defaultPollInterval = 500 * time.Millisecond
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Locate the bot files and serve them to the management UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logutil.LoggerFromViper(v, os.Stderr)
			if err != nil {
				return err
			}

			state, err := discover(v, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			newStartupLog(out, isTerminal(out)).State(state)

			srv, err := server.New(server.Config{
				State:        state,
				Logger:       logger,
				PollInterval: v.GetDuration("logtail.poll_interval"),
			})
			if err != nil {
				return err
			}

			ctx, cancel := setupSignalHandler(cmd.Context())
			defer cancel()

			addr := v.GetString("server.listen")
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return fmt.Errorf("serve %s: %w", addr, err)
			}
			logger.Info("shut down")
			return nil
		},
	}

	cmd.Flags().String("listen", defaultListen, "Address to listen on.")
	cmd.Flags().Duration("poll-interval", defaultPollInterval, "Log tail poll interval.")
	_ = v.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("logtail.poll_interval", cmd.Flags().Lookup("poll-interval"))

	return cmd
}
