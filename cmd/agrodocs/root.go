package main

import (
	"fmt"

	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// env carries what every subcommand needs once flags are parsed.
type env struct {
	configPath string
	cfg        *config.Config
	log        *logrus.Logger
}

func newRootCmd() *cobra.Command {
	rt := &env{}
	root := &cobra.Command{
		Use:   "agrodocs",
		Short: "Template driven invoices and delivery notes for agricultural cooperatives",
		Long: `agrodocs fills spreadsheet templates with the data of invoices and delivery
notes. Placeholders like ${TOTAL} are bound to entity attributes through a
catalog of variables; the filled workbook is archived as xlsx or pdf.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env file
			_ = godotenv.Load()
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			rt.cfg = cfg
			rt.log = logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "Config file path (default: config.yaml in . or ./config)")

	root.AddCommand(
		newServerCmd(rt),
		newMigrateCmd(rt),
		newGenerateCmd(rt),
		newBatchCmd(rt),
		newCatalogCmd(rt),
		newTemplateCmd(rt),
	)
	return root
}
