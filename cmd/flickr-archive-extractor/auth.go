package main

import (
	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/config"
	"github.com/maizy/flickr-archive-extractor/internal/gphotos"
)

func newAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to the Google Photos library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, a.envRepo)
			if err != nil {
				return err
			}

			authenticator := gphotos.NewAuthenticator(cfg.ClientSecretFile, cfg.TokenFile, a.logger)
			return authenticator.Authorize(cmd.Context())
		},
	}
}
