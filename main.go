package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hawthorn-data/sheetland/filesink"
	"github.com/hawthorn-data/sheetland/sheetsource"
	"github.com/hawthorn-data/sheetland/table"
)

var cfg config

var rootCmd = &cobra.Command{
	Use:   "sheetland",
	Short: "Extracts a Google Sheets range and lands it in S3 as CSV or parquet",
	Long: `sheetland is a one-shot extract-and-land job: it fetches a Google service
account credential from AWS Secrets Manager, reads one range of values from a
spreadsheet, and writes the resulting table to S3 as tab-separated CSV or
parquet, optionally compressed (zip for CSV, snappy for parquet).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVar(&cfg.SecretName, "google-secret-name", "", "name of the Secrets Manager secret holding the service account key")
	flags.StringVar(&cfg.SecretRegion, "google-secret-region", "", "region of the Secrets Manager secret")
	flags.StringVar(&cfg.SpreadsheetID, "google-spreadsheet-id", "", "identifier of the source spreadsheet")
	flags.StringVar(&cfg.SpreadsheetTab, "google-spreadsheet-tab", "", "sheet name or A1-style range to read")
	flags.StringVar(&cfg.Bucket, "bucket", "", "destination S3 bucket")
	flags.StringVar(&cfg.Folder, "folder", "data", "destination path prefix, may include nested subpaths")
	flags.StringVar(&cfg.Filename, "filename", "filename", "base name for the output object")
	flags.StringVar(&cfg.OutputFormat, "output-format", "csv", "output format: csv or parquet")
	flags.StringVar(&cfg.Compression, "compression", "false", "enable format-default compression (zip for csv, snappy for parquet)")

	for _, f := range []string{
		"google-secret-name",
		"google-secret-region",
		"google-spreadsheet-id",
		"google-spreadsheet-tab",
		"bucket",
	} {
		cobra.CheckErr(rootCmd.MarkFlagRequired(f))
	}
}

func run(ctx context.Context, cfg config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	key, err := sheetsource.FetchServiceAccountKey(ctx, cfg.SecretName, cfg.SecretRegion)
	if err != nil {
		return err
	}

	svc, err := sheetsource.NewService(ctx, key)
	if err != nil {
		return err
	}

	values, err := sheetsource.ReadRange(ctx, svc, cfg.SpreadsheetID, cfg.SpreadsheetTab)
	if err != nil {
		return err
	}
	t := table.FromValues(values)

	store, err := filesink.NewS3Store(ctx, cfg.Bucket)
	if err != nil {
		return err
	}

	uri, err := filesink.Write(ctx, store, t, filesink.WriteRequest{
		Folder:   cfg.Folder,
		Filename: cfg.Filename,
		Format:   filesink.ParseFormat(cfg.OutputFormat),
		Compress: parseCompression(cfg.Compression),
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"uri":     uri,
		"records": t.NumRecords(),
	}).Info("extract complete")

	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.WithField("err", err).Error("extract failed")
		os.Exit(1)
	}
}
