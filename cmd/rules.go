package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/rulefile"
	"procodus.dev/climate-monitor/internal/store"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage threshold rules",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import threshold rules from a YAML file",
	Long: `Validate every rule in the file, then create them in order.
Nothing is written when any rule is invalid or names a missing asset; the import
runs in one transaction. With --dry-run the file is only validated.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesImport,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)

	rulesImportCmd.Flags().Bool("dry-run", false, "validate the file without writing")
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	logger := GetLogger("rules")

	inputs, err := rulefile.Load(args[0])
	if err != nil {
		return err
	}
	if err := rulefile.Validate(inputs); err != nil {
		return fmt.Errorf("invalid rule file %s: %w", args[0], err)
	}

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d valid rules\n", args[0], len(inputs))
		return nil
	}

	db, st, err := openStore(logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseDB(db, logger) }()

	var created []monitor.ThresholdRule
	err = st.Transaction(context.Background(), func(tx *store.Store) error {
		rules, err := monitor.NewRules(tx, tx)
		if err != nil {
			return err
		}
		created, err = rulefile.Import(context.Background(), rules, inputs)
		return err
	})
	if err != nil {
		logger.Error("rule import rolled back", "total", len(inputs), "error", err)
		return err
	}

	for _, rule := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "created rule %d %q\n", rule.ID, rule.Name)
	}
	logger.Info("rules imported", "file", args[0], "count", len(created))
	return nil
}
