package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/check"
)

func newCheckCmd(a *app) *cobra.Command {
	var archiveGlobs []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the completeness of the export archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := check.NewChecker(a.logger)
			report, err := checker.Check(check.CheckInput{
				ArchiveGlobs: archiveGlobs,
				Verbose:      a.verbose,
			})
			if errors.Is(err, check.ErrNoArchives) {
				report.Print(a.logger)
				return err
			}
			if err != nil {
				return err
			}

			report.Print(a.logger)
			if !report.Complete() {
				return fmt.Errorf("archive set is incomplete")
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&archiveGlobs, "archive", nil, "path to the archives, globs may be used (repeatable)")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
