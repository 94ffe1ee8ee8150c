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
	"os"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/analysis"
	"github.com/ademuri/spotify-history-tools/internal/history"
	"github.com/ademuri/spotify-history-tools/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import [data-dir]",
	Short: "Imports an extended history export into the local database",
	Long: `Reads every streaming-history JSON file under the data directory and
archives the plays in the local database. Importing the same files again
is safe: plays that are already archived are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dataDir
		if len(args) > 0 {
			dir = args[0]
		}
		return importHistory(viper.GetString("database"), dir)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importHistory(dbPath string, dir string) error {
	events, err := history.Load(dir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no listening history found in %q", dir)
	}

	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	listens := make([]store.ListenImport, 0, len(events))
	malformed := 0
	for _, ev := range events {
		track, artist, ok := analysis.ResolveDisplay(ev)
		if !ok {
			malformed++
			continue
		}
		date, err := analysis.ParseTimestamp(ev.Ts)
		if err != nil {
			malformed++
			continue
		}
		var ms int64
		if ev.MsPlayed != nil {
			ms = *ev.MsPlayed
		}
		listens = append(listens, store.ListenImport{
			TrackName: track,
			Artist:    artist,
			Date:      date,
			MsPlayed:  ms,
			Skipped:   ev.Skipped,
		})
	}

	inserted, err := db.AddListens(listens)
	if err != nil {
		return fmt.Errorf("archiving listens: %w", err)
	}

	if err := db.SetMeta("last_imported", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("recording import time: %w", err)
	}

	fmt.Printf("Imported %d listens (%d already archived, %d malformed)\n", inserted, len(listens)-inserted, malformed)
	if malformed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d entries were missing a track name or timestamp\n", malformed)
	}
	return nil
}
