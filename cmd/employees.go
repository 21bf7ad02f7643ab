package main

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

var employeesCmd = &cobra.Command{
	Use:   "employees <company-id>",
	Short: "Discover employees for a single company",
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

		company, err := env.Store.GetCompany(ctx, id)
		if err != nil {
			return err
		}

		job := &model.Job{
			ID:   uuid.New().String(),
			Kind: model.JobEmployeeDiscovery,
			Payload: model.EmployeeDiscoveryPayload{
				CompanyID:   company.ID,
				CompanyName: company.Name,
				WebsiteURL:  company.Website,
				Location:    company.Address,
			},
		}
		if err := env.Finder.HandleDiscovery(ctx, job); err != nil {
			return eris.Wrapf(err, "discover employees for company %d", id)
		}

		contacts, err := env.Store.ListContacts(ctx, id)
		if err != nil {
			return err
		}
		zap.L().Info("employee discovery complete",
			zap.Int64("company_id", id),
			zap.Int("contacts", len(contacts)),
		)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(employeesCmd)
}
