package main

import (
	"github.com/spf13/cobra"

	"github.com/maizy/flickr-archive-extractor/internal/config"
	"github.com/maizy/flickr-archive-extractor/internal/mirror"
)

func newMirrorCmd(a *app) *cobra.Command {
	var archiveGlobs []string
	var bucket string
	var region string

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy the export archives to an S3 bucket as an offsite backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, a.envRepo)
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = cfg.S3Bucket
			}
			if region == "" {
				region = cfg.S3Region
			}

			return mirror.NewMirrorer(a.logger, nil).Mirror(cmd.Context(), mirror.MirrorInput{
				ArchiveGlobs:    archiveGlobs,
				Bucket:          bucket,
				Region:          region,
				AccessKeyID:     string(cfg.S3AccessKeyID),
				SecretAccessKey: string(cfg.S3SecretAccessKey),
			})
		},
	}
	cmd.Flags().StringArrayVar(&archiveGlobs, "archive", nil, "path to the archives, globs may be used (repeatable)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket name (defaults to the config value)")
	cmd.Flags().StringVar(&region, "region", "", "S3 region (defaults to the config value)")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}
