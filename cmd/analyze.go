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
	"strconv"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/analysis"
	"github.com/ademuri/spotify-history-tools/internal/history"
	"github.com/ademuri/spotify-history-tools/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var analyzeTopN int

var analyzeCmd = &cobra.Command{
	Use:   "analyze [data-dir]",
	Short: "Builds a listening report from an extended history export",
	Long: `Reads every streaming-history JSON file under the data directory,
scores each play as a fraction of a full listen, and prints a YAML report
with monthly, yearly, and all-time rankings plus era segmentation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dataDir
		if len(args) > 0 {
			dir = args[0]
		}
		return runAnalyze(os.Stdout, dir, analyzeTopN)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeTopN, "top", 10, "Number of artists and songs per ranking")
}

func runAnalyze(out io.Writer, dir string, topN int) error {
	events, err := history.Load(dir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no listening history found in %q", dir)
	}

	run := analysis.NewRun()
	run.Collect(events)
	report := run.Report(topN)

	stats := run.Stats()
	fmt.Fprintf(os.Stderr, "Processed %d listens: %d duplicates, %d malformed, %d repaired, %d fused, %d titles canonicalized\n",
		stats.Processed, stats.Duplicates, stats.Skipped, stats.Repaired, stats.Fused, stats.Canonized)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// archiveEvents converts archived listens back into raw events so the
// scoring engine can run over a date range from the database.
func archiveEvents(records []store.ListenRecord) []history.RawEvent {
	events := make([]history.RawEvent, 0, len(records))
	for _, rec := range records {
		ms := rec.MsPlayed
		events = append(events, history.RawEvent{
			Ts:         rec.Time.UTC().Format("2006-01-02T15:04:05Z"),
			MsPlayed:   &ms,
			TrackName:  rec.TrackName,
			ArtistName: rec.Artist,
			Skipped:    rec.Skipped,
		})
	}
	return events
}

type FleReportAnalyzer struct {
	TopN int
}

func (a *FleReportAnalyzer) GetName() string {
	return "Listening Report"
}

func (a *FleReportAnalyzer) Configure(params map[string]string) error {
	if v, ok := params["n"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for n: %q", v)
		}
		a.TopN = n
	}
	return nil
}

func (a *FleReportAnalyzer) GetResults(dbPath string, start time.Time, end time.Time) (Analysis, error) {
	db, err := store.New(dbPath)
	if err != nil {
		return Analysis{}, err
	}
	defer db.Close()

	records, err := db.GetListens(start, end)
	if err != nil {
		return Analysis{}, fmt.Errorf("reading listens: %w", err)
	}
	if len(records) == 0 {
		return Analysis{results: [][]string{{"Artist", "Score"}}}, nil
	}

	topN := a.TopN
	if topN == 0 {
		topN = 10
	}

	run := analysis.NewRun()
	run.Collect(archiveEvents(records))
	report := run.Report(topN)

	return Analysis{BodyOverride: renderReportHTML(report)}, nil
}

func renderReportHTML(report *analysis.Report) string {
	out := "<h3>Top Artists</h3>\n<ol>\n"
	if report.AllTime != nil {
		for _, artist := range report.AllTime.Artists {
			out += fmt.Sprintf("<li>%s (%.1f full listens)</li>\n", artist.Name, artist.Score)
		}
	}
	out += "</ol>\n<h3>Top Songs</h3>\n<ol>\n"
	if report.AllTime != nil {
		for _, song := range report.AllTime.Songs {
			out += fmt.Sprintf("<li>%s by %s (%.1f full listens)</li>\n", song.Name, song.Artist, song.Score)
		}
	}
	out += "</ol>\n"

	if len(report.Intelligence.Eras) > 0 {
		out += "<h3>Eras</h3>\n<ul>\n"
		for _, era := range report.Intelligence.Eras {
			out += fmt.Sprintf("<li>%s to %s: %s</li>\n", era.Start, era.End, era.Artist)
		}
		out += "</ul>\n"
	}
	return out
}
