package main

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

var enrichURL string

var enrichCmd = &cobra.Command{
	Use:   "enrich <company-id>",
	Short: "Run enrichment for a single company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Run the handler directly instead of going through the queue;
		// a one-shot command has no use for retry scheduling.
		job := &model.Job{
			ID:   uuid.New().String(),
			Kind: model.JobCompanyEnrichment,
			Payload: model.EnrichmentPayload{
				CompanyID: id,
				URL:       enrichURL,
			},
		}
		if err := env.Enricher.HandleEnrichment(ctx, job); err != nil {
			return eris.Wrapf(err, "enrich company %d", id)
		}

		company, err := env.Store.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		zap.L().Info("enrichment complete",
			zap.Int64("company_id", company.ID),
			zap.String("status", string(company.Status)),
			zap.String("website", company.Website),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichURL, "url", "", "known website URL, skips discovery")
	rootCmd.AddCommand(enrichCmd)
}
