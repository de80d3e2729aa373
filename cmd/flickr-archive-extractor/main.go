package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/spf13/cobra"
)

var version = "dev"

type app struct {
	logger     log.Logger
	envRepo    env.Repository
	configFile string
	verbose    bool
}

func main() {
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		logger.Errorf(err.Error())
		os.Exit(1)
	}
}

func newRootCmd(logger log.Logger) *cobra.Command {
	a := &app{
		logger:  logger,
		envRepo: env.NewRepository(),
	}

	rootCmd := &cobra.Command{
		Use:           "flickr-archive-extractor",
		Short:         "Verify Flickr export archives and migrate them to Google Photos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				a.logger.EnableDebugLog(true)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "flickr-archive-extractor.yaml", "path to the config file")

	rootCmd.AddCommand(
		newCheckCmd(a),
		newAlbumsCmd(a),
		newAuthCmd(a),
		newUploadCmd(a),
		newFetchCmd(a),
		newMirrorCmd(a),
	)
	return rootCmd
}
