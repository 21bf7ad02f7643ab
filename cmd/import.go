package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/importer"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/queue"
)

var (
	importSheet   string
	importEnqueue bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Bulk import companies from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := importer.ParseFile(args[0], importer.Options{SheetName: importSheet})
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			zap.L().Warn("no importable rows found", zap.String("file", args[0]))
			return nil
		}

		inserted, err := env.Store.BulkInsertCompanies(ctx, companies)
		if err != nil {
			return err
		}
		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int64("inserted", inserted),
		)

		if !importEnqueue {
			return nil
		}

		// The insert path does not return IDs, so page through the table
		// and enqueue every company still waiting on a website.
		if err := env.Queue.Start(ctx); err != nil {
			return err
		}

		const pageSize = 500
		count := 0
		for offset := 0; ; offset += pageSize {
			page, err := env.Store.ListCompanies(ctx, pageSize, offset)
			if err != nil {
				return err
			}
			for _, c := range page {
				if c.Status != model.StatusIncomplete || c.Website != "" {
					continue
				}
				if _, err := env.Queue.Enqueue(model.JobCompanyEnrichment, model.EnrichmentPayload{
					CompanyID:   c.ID,
					CompanyName: c.Name,
				}, queue.EnqueueOptions{}); err != nil {
					return err
				}
				count++
			}
			if len(page) < pageSize {
				break
			}
		}
		zap.L().Info("enrichment enqueued", zap.Int("jobs", count))

		env.drain(ctx)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().BoolVar(&importEnqueue, "enqueue", false, "enqueue enrichment for imported companies")
	rootCmd.AddCommand(importCmd)
}
