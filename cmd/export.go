package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/climate-monitor/internal/export"
	"procodus.dev/climate-monitor/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export assets, readings and maintenance records",
	Long: `Write every asset, reading and maintenance record, with per-location statistics, as
a zip of CSV files, an Excel workbook or a PDF report.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", string(export.FormatCSV), "export format (csv, xlsx, pdf)")
	exportCmd.Flags().String("output-dir", ".", "directory to write the export to")

	_ = viper.BindPFlag("export.format", exportCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("export.output_dir", exportCmd.Flags().Lookup("output-dir"))
}

func runExport(cmd *cobra.Command, _ []string) error {
	logger := GetLogger("export")

	format, err := export.ParseFormat(viper.GetString("export.format"))
	if err != nil {
		return err
	}

	db, st, err := openStore(logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseDB(db, logger) }()

	ctx := context.Background()
	var ds *export.Dataset
	err = st.ReadOnly(ctx, func(tx *store.Store) error {
		collected, err := export.Collect(ctx, tx, time.Now())
		ds = collected
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to collect export data: %w", err)
	}

	path := filepath.Join(viper.GetString("export.output_dir"), format.Filename(ds.GeneratedAt))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Write(f, format, ds); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	logger.Info("export written", "path", path, "format", format, "readings", len(ds.Readings))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
