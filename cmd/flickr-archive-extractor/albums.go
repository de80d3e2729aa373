package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/archive"
)

func newAlbumsCmd(a *app) *cobra.Command {
	var archiveGlobs []string

	cmd := &cobra.Command{
		Use:   "albums",
		Short: "List albums from the export with media coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			archives, wrongPaths := archive.ListArchives(archiveGlobs, a.logger)
			for _, p := range wrongPaths {
				a.logger.Warnf("Not an archive, skipping: %s", p)
			}
			if len(archives) == 0 {
				return fmt.Errorf("no readable archives found for the provided paths")
			}

			idx, err := archive.BuildIndex(archives, a.logger)
			if err != nil {
				return fmt.Errorf("failed to index archives: %w", err)
			}
			defer idx.Close() //nolint:errcheck

			albums, err := idx.Albums()
			if err != nil {
				return err
			}
			if idx.AlbumsFile == nil {
				return fmt.Errorf("albums.json not found in the archives")
			}

			a.logger.Infof("Albums: %d", len(albums))
			for _, album := range albums {
				present := 0
				ids := album.PhotoIDs()
				for _, id := range ids {
					if _, ok := idx.Items[id]; ok {
						present++
					}
				}
				if present == len(ids) {
					a.logger.Printf("- %s (%s): %d photos", album.Title, album.ID, len(ids))
				} else {
					a.logger.Warnf("- %s (%s): %d of %d photos present", album.Title, album.ID, present, len(ids))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&archiveGlobs, "archive", nil, "path to the archives, globs may be used (repeatable)")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
