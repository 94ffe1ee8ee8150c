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

	"github.com/ademuri/spotify-history-tools/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	limitArtists int
	limitTracks  int
)

var topNCmd = &cobra.Command{
	Use:   "top-n [from] [to (optional)]",
	Short: "Prints the most played artists and tracks over a period",
	Long:  `Prints play counts and listening time for the top artists and tracks between the given dates.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printTopN(os.Stdout, viper.GetString("database"), args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topNCmd)
	topNCmd.Flags().IntVar(&limitArtists, "artists", 10, "Number of top artists to show")
	topNCmd.Flags().IntVar(&limitTracks, "tracks", 10, "Number of top tracks to show")
}

func printTopN(out io.Writer, dbPath string, args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}

	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	total, err := db.CountListens(start, end)
	if err != nil {
		return fmt.Errorf("counting listens: %w", err)
	}

	fmt.Fprintf(out, "Period: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Fprintf(out, "Total listens: %d\n\n", total)

	if limitArtists > 0 {
		artists, err := db.GetTopArtists(start, end, limitArtists)
		if err != nil {
			return fmt.Errorf("querying top artists: %w", err)
		}

		fmt.Fprintf(out, "## Top %d Artists\n", limitArtists)
		table := tablewriter.NewWriter(out)
		table.Header([]string{"Artist", "Plays", "Hours"})
		for _, a := range artists {
			table.Append([]string{
				a.Artist,
				strconv.FormatInt(a.Plays, 10),
				formatHours(a.TotalMs),
			})
		}
		table.Render()
		fmt.Fprintln(out)
	}

	if limitTracks > 0 {
		tracks, err := db.GetTopTracks(start, end, limitTracks)
		if err != nil {
			return fmt.Errorf("querying top tracks: %w", err)
		}

		fmt.Fprintf(out, "## Top %d Tracks\n", limitTracks)
		table := tablewriter.NewWriter(out)
		table.Header([]string{"Track", "Artist", "Plays", "Hours"})
		for _, t := range tracks {
			table.Append([]string{
				t.Name,
				t.Artist,
				strconv.FormatInt(t.Plays, 10),
				formatHours(t.TotalMs),
			})
		}
		table.Render()
	}

	return nil
}

func formatHours(ms int64) string {
	return fmt.Sprintf("%.1f", float64(ms)/1000/60/60)
}

type TopNAnalyzer struct {
	N int
}

func (t *TopNAnalyzer) GetName() string {
	return "Top artists"
}

func (t *TopNAnalyzer) Configure(params map[string]string) error {
	if v, ok := params["n"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for n: %q", v)
		}
		t.N = n
	}
	return nil
}

func (t *TopNAnalyzer) GetResults(dbPath string, start time.Time, end time.Time) (analysis Analysis, err error) {
	db, err := store.New(dbPath)
	if err != nil {
		return
	}
	defer db.Close()

	n := t.N
	if n == 0 {
		n = 20
	}

	artists, err := db.GetTopArtists(start, end, n)
	if err != nil {
		err = fmt.Errorf("querying top artists: %w", err)
		return
	}

	var totalPlays int64
	analysis.results = [][]string{{"Artist", "Plays", "Hours"}}
	for _, a := range artists {
		totalPlays += a.Plays
		analysis.results = append(analysis.results, []string{
			a.Artist,
			strconv.FormatInt(a.Plays, 10),
			formatHours(a.TotalMs),
		})
	}
	analysis.summary = fmt.Sprintf("%d plays across the top %d artists", totalPlays, len(artists))

	return
}
