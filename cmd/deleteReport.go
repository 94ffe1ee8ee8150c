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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-history-tools/internal/store"
)

// deleteReportCmd represents the deleteReport command
var deleteReportCmd = &cobra.Command{
	Use:   "delete-report",
	Short: "Deletes a configured report",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteReport(viper.GetString("database"), viper.GetString("name"), viper.GetString("dest"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(deleteReportCmd)

	var reportName string
	deleteReportCmd.Flags().StringVar(&reportName, "name", "", "Name of the report to delete")
	deleteReportCmd.MarkFlagRequired("name")
	viper.BindPFlag("name", deleteReportCmd.Flags().Lookup("name"))

	var email string
	deleteReportCmd.Flags().StringVar(&email, "dest", "", "Destination email of the report to delete")
	deleteReportCmd.MarkFlagRequired("dest")
	viper.BindPFlag("dest", deleteReportCmd.Flags().Lookup("dest"))
}

func deleteReport(dbPath string, name string, email string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteReport(name, email); err != nil {
		return err
	}

	fmt.Printf("Deleted report %q (%s)\n", name, email)
	return nil
}
