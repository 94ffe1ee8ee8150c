/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/analysis"
	"github.com/ademuri/spotify-history-tools/internal/history"
	"github.com/ademuri/spotify-history-tools/internal/stages"
	"github.com/ademuri/spotify-history-tools/internal/store"
	"github.com/spf13/cobra"
)

var (
	stageWindowDays int
	stageThreshold  float64
	stageTopArtists int
)

var stagesCmd = &cobra.Command{
	Use:   "stages [data-dir]",
	Short: "Detects musical stages in an extended history export",
	Long: `Splits the listening history into stages: spans of weeks where the mix
of artists stayed similar. A new stage starts whenever the artist mix of a
window diverges sharply from the stage so far.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dataDir
		if len(args) > 0 {
			dir = args[0]
		}
		return printStages(os.Stdout, dir)
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)

	stagesCmd.Flags().IntVar(&stageWindowDays, "window", 30, "Window size in days")
	stagesCmd.Flags().Float64Var(&stageThreshold, "threshold", 0.3, "Similarity below which a new stage starts")
	stagesCmd.Flags().IntVar(&stageTopArtists, "top", 5, "Number of key artists to show per stage")
}

func printStages(out io.Writer, dir string) error {
	events, err := history.Load(dir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no listening history found in %q", dir)
	}

	cfg := stages.Config{
		WindowDays:          stageWindowDays,
		SimilarityThreshold: stageThreshold,
		TopArtists:          stageTopArtists,
	}
	detected := stages.Detect(stageListens(events), cfg)
	writeStages(out, detected)
	return nil
}

// stageListens converts raw events into the flat shape the stage
// detector works on. Malformed events are dropped silently here; the
// analyze command reports them.
func stageListens(events []history.RawEvent) []stages.Listen {
	listens := make([]stages.Listen, 0, len(events))
	for _, ev := range events {
		_, artist, ok := analysis.ResolveDisplay(ev)
		if !ok || artist == "" {
			continue
		}
		t, err := analysis.ParseTimestamp(ev.Ts)
		if err != nil {
			continue
		}
		var ms int64
		if ev.MsPlayed != nil {
			ms = *ev.MsPlayed
		}
		listens = append(listens, stages.Listen{
			Time:   t,
			Artist: artist,
			Ms:     ms,
		})
	}
	return listens
}

func writeStages(out io.Writer, detected []stages.Stage) {
	if len(detected) == 0 {
		fmt.Fprintln(out, "Not enough listening history to detect stages.")
		return
	}

	fmt.Fprintf(out, "Found %d stages\n\n", len(detected))
	for i, stage := range detected {
		fmt.Fprintf(out, "Stage %d: %s to %s (%d days)\n", i+1,
			stage.Start.Format("2006-01-02"), stage.End.Format("2006-01-02"), stage.DurationDays)
		fmt.Fprintf(out, "  Key artists: %s\n", strings.Join(stage.TopArtists, ", "))
	}
}

type StagesAnalyzer struct {
}

func (s *StagesAnalyzer) GetName() string {
	return "Listening stages"
}

func (s *StagesAnalyzer) GetResults(dbPath string, start time.Time, end time.Time) (analysis Analysis, err error) {
	db, err := store.New(dbPath)
	if err != nil {
		return
	}
	defer db.Close()

	records, err := db.GetListens(start, end)
	if err != nil {
		err = fmt.Errorf("reading listens: %w", err)
		return
	}

	listens := make([]stages.Listen, 0, len(records))
	for _, rec := range records {
		listens = append(listens, stages.Listen{
			Time:   rec.Time,
			Artist: rec.Artist,
			Ms:     rec.MsPlayed,
		})
	}

	detected := stages.Detect(listens, stages.DefaultConfig())
	analysis.results = [][]string{{"Start", "End", "Days", "Key Artists"}}
	for _, stage := range detected {
		analysis.results = append(analysis.results, []string{
			stage.Start.Format("2006-01-02"),
			stage.End.Format("2006-01-02"),
			fmt.Sprintf("%d", stage.DurationDays),
			strings.Join(stage.TopArtists, ", "),
		})
	}
	analysis.summary = fmt.Sprintf("%d stages detected", len(detected))

	return
}
