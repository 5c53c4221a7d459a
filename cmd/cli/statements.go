package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/categorize"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/gcsuploader"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/statement"
	"github.com/spf13/cobra"
)

func newIngestCommand(e *env) *cobra.Command {
	var gcsURI string

	cmd := &cobra.Command{
		Use:   "ingest [FILE]",
		Short: "Ingest a statement from a local file or from Cloud Storage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			if (len(args) == 1) == (gcsURI != "") {
				return fmt.Errorf("pass either FILE or --gcs-uri")
			}

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			var txs []*domain.Transaction
			if gcsURI != "" {
				txs, err = a.Orchestrator.IngestFromGCS(e.ctx, userID, gcsURI)
			} else {
				var data []byte
				if data, err = os.ReadFile(args[0]); err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				txs, err = a.Orchestrator.Ingest(e.ctx, userID, base64.StdEncoding.EncodeToString(data))
			}

			out := cmd.OutOrStdout()
			if len(txs) > 0 {
				if perr := printTransactions(out, txs, currencyOf(e.ctx, a, userID)); perr != nil {
					return perr
				}
			}
			if err != nil {
				return fmt.Errorf("ingestion stopped after %d transaction(s): %w", len(txs), err)
			}
			fmt.Fprintf(out, "Ingested %d transaction(s)\n", len(txs))
			return nil
		},
	}
	cmd.Flags().StringVar(&gcsURI, "gcs-uri", "", "gs:// URI of an uploaded statement")

	return cmd
}

// newParseCommand previews what ingestion would book without touching the
// ledger.
func newParseCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract and parse a statement without committing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.Extractor.Extract(e.ctx, data)
			if err != nil {
				return err
			}

			var txs []*domain.Transaction
			scanner := statement.NewScanner(strings.NewReader(text), e.userID, "")
			for c := range scanner.Candidates() {
				txs = append(txs, &domain.Transaction{
					Amount:      c.Amount,
					Type:        c.Type,
					Category:    categorize.Heuristic(c.Description),
					Description: c.Description,
					Date:        c.Date,
				})
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), txs, domain.DefaultCurrency)
		},
	}
}

func newUploadCommand(e *env) *cobra.Command {
	var bucket, object string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a statement to Cloud Storage for async ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			if bucket == "" {
				bucket = e.cfg.Storage.Bucket
			}
			if bucket == "" {
				return fmt.Errorf("--bucket (or storage.bucket) is required")
			}
			if object == "" {
				userID, err := e.requireUser()
				if err != nil {
					return err
				}
				object = gcsuploader.StatementObjectName(userID, time.Now(), strings.ToLower(filepath.Ext(filePath)))
			}

			log := logger.FromContext(e.ctx)
			log.Info().
				Str("bucket", bucket).
				Str("object", object).
				Str("file", filePath).
				Msg("Uploading file to GCS")

			client, err := gcsuploader.NewClient(e.ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.UploadFile(e.ctx, bucket, object, filePath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gcsuploader.URI(bucket, object))
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket; defaults to storage.bucket")
	cmd.Flags().StringVar(&object, "object", "", "object name; defaults to statements/<user>/<yyyy>/<mm>/<uuid><ext>")

	return cmd
}

