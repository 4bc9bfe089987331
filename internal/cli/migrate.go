package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/buysell/internal/infra/database"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := database.Migrate(rt.db); err != nil {
				return err
			}
			zap.L().Info("migration finished", zap.String("driver", rt.cfg.Database.Driver))
			return nil
		},
	}
}
