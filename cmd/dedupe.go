package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/store"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate companies and contacts",
	Long:  "Deletes companies sharing a case-insensitive name and contacts sharing (name, role, source) within a company. The earliest record always survives.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		companies, err := st.DedupeCompanies(ctx)
		if err != nil {
			return err
		}
		contacts, err := st.DedupeContacts(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("dedupe complete",
			zap.Int64("companies_removed", companies),
			zap.Int64("contacts_removed", contacts),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
