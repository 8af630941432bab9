package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sdcritic/internal/critique"
	"sdcritic/internal/critique/pipeline"
	"sdcritic/internal/record"
	"sdcritic/internal/review"
)

var watchMultiAgent bool

// debounce window: extraction tools write JSON in several chunks, so the
// first fsnotify event usually precedes a complete file.
const watchSettleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Critique extraction records as they are dropped into a directory",
	Long: `Watches a directory and runs every new or rewritten *.json record through
the pipeline in AUTO mode, archiving each report. Review never blocks here;
records with critical issues are archived as failed and left for an operator
to re-run with 'sdcritic critique --mode REVIEW'.

A record foo.json may have a sibling foo.txt with the paper's full text.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchMultiAgent, "multi-agent", false, "Use the triage/dispatch agent round for layer 2")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	orch := pipeline.New(registry, review.Headless(), buildMatcher(cmd))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for *.json records (ctrl-c to stop)\n", dir)

	// Coalesce bursts of events per path.
	pending := make(map[string]*time.Timer)
	processed := make(chan string)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := event.Name
			if !strings.HasSuffix(path, ".json") {
				continue
			}
			if t, exists := pending[path]; exists {
				t.Reset(watchSettleDelay)
				continue
			}
			pending[path] = time.AfterFunc(watchSettleDelay, func() {
				processed <- path
			})

		case path := <-processed:
			delete(pending, path)
			critiqueDropped(cmd, orch, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-sig:
			fmt.Fprintln(cmd.OutOrStdout(), "stopping watch")
			return nil

		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

// critiqueDropped runs one dropped record and archives the report. Errors
// are reported and swallowed; the watch keeps running.
func critiqueDropped(cmd *cobra.Command, orch *pipeline.Orchestrator, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read dropped record", zap.String("path", path), zap.Error(err))
		return
	}
	rec, err := record.Parse(data)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", filepath.Base(path), err)
		return
	}

	var fullText string
	sidecar := strings.TrimSuffix(path, ".json") + ".txt"
	if text, err := os.ReadFile(sidecar); err == nil {
		fullText = string(text)
	}

	rep, err := orch.Run(cmd.Context(), rec, fullText, pipeline.Options{
		Mode:       critique.ModeAuto,
		MultiAgent: watchMultiAgent || cfg.Pipeline.MultiAgent,
	})
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", filepath.Base(path), err)
		return
	}

	recordID := strings.TrimSuffix(filepath.Base(path), ".json")
	archiveReport(recordID, rep)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", recordID, rep.Summary)
}
