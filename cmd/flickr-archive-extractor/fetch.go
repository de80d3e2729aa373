package main

import (
	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/fetch"
)

func newFetchCmd(a *app) *cobra.Command {
	var linksFile string
	var targetDir string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download export archives from a file of download links",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetch.NewFetcher(a.logger).Fetch(cmd.Context(), fetch.FetchInput{
				LinksFile: linksFile,
				TargetDir: targetDir,
			})
		},
	}
	cmd.Flags().StringVar(&linksFile, "links", "", "file with one archive download URL per line")
	cmd.Flags().StringVar(&targetDir, "to", ".", "directory to download the archives into")
	_ = cmd.MarkFlagRequired("links")
	return cmd
}
