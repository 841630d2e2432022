package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alwitt/requestboard"
	"github.com/alwitt/requestboard/config"
	"github.com/apex/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the request board web server",
		Long: "Serves the request board page. Without --config the defaults and the " +
			"SUPABASE_URL / SUPABASE_ANON_KEY environment variables are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to request board config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Log.SetupLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": Version,
		"backend": cfg.Store.Backend,
		"listen":  cfg.Server.Listen,
	}).Info("Starting request board")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return requestboard.Serve(ctx, cfg, cmd.OutOrStdout())
}
