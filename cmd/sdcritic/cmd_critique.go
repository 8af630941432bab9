package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/pipeline"
	"sdcritic/internal/record"
	"sdcritic/internal/review"
	"sdcritic/internal/store"
)

var (
	critiqueMode       string
	critiqueMultiAgent bool
	critiqueFullText   string
	critiqueRecordID   string
	critiqueJSON       bool
	critiqueNoSave     bool
	critiqueHeadless   bool
	critiqueFields     bool
)

var critiqueCmd = &cobra.Command{
	Use:   "critique [record.json]",
	Short: "Run one extracted record through the critique pipeline",
	Long: `Validates a record of structured extraction data through all three layers
and prints the critique report.

In REVIEW mode the run suspends on critical issues and prompts for a decision
on each flagged field; --headless rejects them instead (for batch use).

Example:
  sdcritic critique extractions/meyer-2019.json --full-text papers/meyer-2019.txt --mode REVIEW`,
	Args: cobra.ExactArgs(1),
	RunE: runCritique,
}

func init() {
	critiqueCmd.Flags().StringVar(&critiqueMode, "mode", "", "Pipeline mode: AUTO or REVIEW (default from config)")
	critiqueCmd.Flags().BoolVar(&critiqueMultiAgent, "multi-agent", false, "Use the triage/dispatch agent round for layer 2")
	critiqueCmd.Flags().StringVar(&critiqueFullText, "full-text", "", "Path to the paper's full text")
	critiqueCmd.Flags().StringVar(&critiqueRecordID, "record-id", "", "Record identifier for the archive (default: file name)")
	critiqueCmd.Flags().BoolVar(&critiqueJSON, "json", false, "Print the full report as JSON")
	critiqueCmd.Flags().BoolVar(&critiqueNoSave, "no-save", false, "Skip archiving the report")
	critiqueCmd.Flags().BoolVar(&critiqueHeadless, "headless", false, "Reject review requests instead of prompting")
	critiqueCmd.Flags().BoolVar(&critiqueFields, "fields", false, "Print the record's verifiable fields with their source quotes")
	rootCmd.AddCommand(critiqueCmd)
}

func runCritique(cmd *cobra.Command, args []string) error {
	recordPath := args[0]

	data, err := os.ReadFile(recordPath)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}
	rec, err := record.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse record: %w", err)
	}

	var fullText string
	if critiqueFullText != "" {
		text, err := os.ReadFile(critiqueFullText)
		if err != nil {
			return fmt.Errorf("failed to read full text: %w", err)
		}
		fullText = string(text)
	}

	mode := critique.Mode(strings.ToUpper(critiqueMode))
	if critiqueMode == "" {
		mode = critique.Mode(strings.ToUpper(cfg.Pipeline.Mode))
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	resolver := review.Headless()
	if mode == critique.ModeReview && !critiqueHeadless {
		resolver = newTerminalResolver(cmd.OutOrStdout(), cmd.InOrStdin())
	}

	orch := pipeline.New(registry, resolver, buildMatcher(cmd))
	rep, err := orch.Run(cmd.Context(), rec, fullText, pipeline.Options{
		Mode:       mode,
		MultiAgent: critiqueMultiAgent || cfg.Pipeline.MultiAgent,
	})
	if err != nil {
		return err
	}

	if !critiqueNoSave {
		recordID := critiqueRecordID
		if recordID == "" {
			recordID = strings.TrimSuffix(filepath.Base(recordPath), filepath.Ext(recordPath))
		}
		archiveReport(recordID, rep)
	}

	if critiqueJSON {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	if critiqueFields {
		fmt.Fprint(cmd.OutOrStdout(), renderFields(rec))
	}
	fmt.Fprint(cmd.OutOrStdout(), renderReport(rep))
	if !rep.PassedValidation {
		// Non-zero exit so batch scripts can fence failed records.
		os.Exit(2)
	}
	return nil
}

// archiveReport saves a report, logging rather than failing the run when the
// archive is unavailable.
func archiveReport(recordID string, rep critique.Report) {
	archive, err := store.NewReportStore(cfg.Store.DatabasePath)
	if err != nil {
		logger.Warn("report archive unavailable", zap.Error(err))
		return
	}
	defer archive.Close()
	if err := archive.Save(recordID, rep); err != nil {
		logger.Warn("failed to archive report", zap.Error(err))
	}
}
