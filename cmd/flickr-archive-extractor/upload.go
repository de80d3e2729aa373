package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/config"
	"github.com/maizy/flickr-archive-extractor/internal/gphotos"
	"github.com/maizy/flickr-archive-extractor/internal/state"
	"github.com/maizy/flickr-archive-extractor/internal/uploader"
)

func newUploadCmd(a *app) *cobra.Command {
	var archiveGlobs []string
	var albumTitles []string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload archive media to Google Photos, resuming previous runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, a.envRepo)
			if err != nil {
				return err
			}

			store, err := state.Open(cfg.StateFile)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			done, err := store.UploadedCount()
			if err != nil {
				return err
			}
			if done > 0 {
				a.logger.Infof("Resuming: %d items already uploaded", done)
			}

			authenticator := gphotos.NewAuthenticator(cfg.ClientSecretFile, cfg.TokenFile, a.logger)
			httpClient, err := authenticator.HTTPClient(cmd.Context())
			if err != nil {
				return err
			}
			client := gphotos.NewClient(cfg.PhotosAPIBaseURL, httpClient, a.logger)

			_, err = uploader.NewUploader(a.logger, client, store).Upload(cmd.Context(), uploader.UploadInput{
				ArchiveGlobs: archiveGlobs,
				AlbumTitles:  albumTitles,
				Verbose:      a.verbose,
				ShowProgress: !noProgress,
			})
			if errors.Is(err, gphotos.ErrQuotaExceeded) {
				a.logger.Warnf("API quota exceeded, re-run the command after the quota resets to continue")
			}
			return err
		},
	}
	cmd.Flags().StringArrayVar(&archiveGlobs, "archive", nil, "path to the archives, globs may be used (repeatable)")
	cmd.Flags().StringArrayVar(&albumTitles, "album", nil, "upload only the named Flickr albums (repeatable)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the per-item progress bar")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
