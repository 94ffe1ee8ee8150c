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
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-history-tools/internal/store"
)

type SendReportsConfig struct {
	DbPath         string
	From           string
	SendgridApiKey string
	DryRun         bool
}

var sendReportsCmd = &cobra.Command{
	Use:   "send-reports",
	Short: "Sends every stored report that is due this month.",
	Long:  ``,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := SendReportsConfig{
			DbPath:         viper.GetString("database"),
			From:           viper.GetString("from"),
			SendgridApiKey: viper.GetString("sendgrid_api_key"),
			DryRun:         viper.GetBool("dry_run"),
		}
		err := sendReports(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendReportsCmd)

	var dryRun bool
	sendReportsCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dry_run", sendReportsCmd.Flags().Lookup("dry_run"))
}

func sendReports(config SendReportsConfig) error {
	db, err := store.New(config.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports()
	if err != nil {
		return fmt.Errorf("Querying reports: %w", err)
	}

	now := time.Now()
	emailConfigs := make([]SendEmailConfig, 0)
	for _, report := range reports {
		toSendThisMonth := time.Date(now.Year(), now.Month(), report.RunDay, 0, 0, 0, 0, now.Location())
		toSendLastMonth := time.Date(now.Year(), now.Month()-1, report.RunDay, 0, 0, 0, 0, now.Location())
		if report.Sent.After(toSendThisMonth) {
			fmt.Printf("Report %q was already sent this month on %s, not sending.\n", report.Name, report.Sent.Format("2006-01-02"))
			continue
		}
		if now.Before(toSendThisMonth) && report.Sent.After(toSendLastMonth) {
			fmt.Printf("Report %q was already sent for last month on %s, not sending.\n", report.Name, report.Sent.Format("2006-01-02"))
			continue
		}

		// Reports always cover the previous calendar month.
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		emailConfigs = append(emailConfigs, SendEmailConfig{
			DbPath:         config.DbPath,
			From:           config.From,
			To:             report.Email,
			ReportName:     report.Name,
			Types:          strings.Split(report.Types, ","),
			Params:         parseReportParams(report.Params),
			DryRun:         config.DryRun,
			SendgridApiKey: config.SendgridApiKey,
			Start:          start,
			End:            end,
		})
	}

	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)
	errOccurred := false
	for _, emailConfig := range emailConfigs {
		limiter.Wait(context.Background())
		fmt.Printf("Sending report %q to %q\n", emailConfig.ReportName, emailConfig.To)
		err := sendEmail(emailConfig)
		if err != nil {
			errOccurred = true
			fmt.Printf("sendEmail: %v\n", err)
		}
	}

	if errOccurred {
		return fmt.Errorf("Error occurred while sending reports")
	}
	return nil
}

// parseReportParams parses the stored params column, one "k=v,k=v"
// group per report type separated by semicolons.
func parseReportParams(stored string) []map[string]string {
	if stored == "" {
		return nil
	}
	groups := strings.Split(stored, ";")
	params := make([]map[string]string, len(groups))
	for i, group := range groups {
		pMap := make(map[string]string)
		for _, pair := range strings.Split(group, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 {
				pMap[kv[0]] = kv[1]
			}
		}
		params[i] = pMap
	}
	return params
}
