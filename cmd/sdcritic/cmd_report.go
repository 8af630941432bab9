package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sdcritic/internal/store"
)

var (
	reportLimit    int
	reportRecordID string
	reportJSON     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect archived critique reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	reportListCmd.Flags().IntVar(&reportLimit, "limit", 20, "Maximum rows to list (0 = all)")
	reportListCmd.Flags().StringVar(&reportRecordID, "record", "", "Only runs for this record")
	reportShowCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the full report as JSON")
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportList(cmd *cobra.Command, args []string) error {
	archive, err := store.NewReportStore(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	var rows []store.ReportSummary
	if reportRecordID != "" {
		rows, err = archive.ListForRecord(reportRecordID)
	} else {
		rows, err = archive.List(reportLimit)
	}
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no archived reports")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-20s  %-6s  %-6s  %-5s  %s\n",
		"RUN", "RECORD", "MODE", "PASSED", "CONF", "GENERATED")
	for _, r := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-20s  %-6s  %-6v  %.2f  %s\n",
			r.RunID, r.RecordID, r.Mode, r.Passed, r.Confidence,
			r.GeneratedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	archive, err := store.NewReportStore(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	rep, err := archive.Get(args[0])
	if err != nil {
		return err
	}

	if reportJSON {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), renderReport(rep))
	return nil
}
