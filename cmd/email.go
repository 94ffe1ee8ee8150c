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
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-history-tools/internal/store"
)

type SendEmailConfig struct {
	DbPath         string
	From           string
	To             string
	ReportName     string
	Types          []string
	Params         []map[string]string
	DryRun         bool
	SendgridApiKey string
	Start          time.Time
	End            time.Time
}

var emailCmd = &cobra.Command{
	Use:   "email <address> <analysis_name...> [date] [date]",
	Short: "Sends an email report",
	Long: `Emails listening history to the specified address.
  <analysis_name> is one or more of: top-n, fle-report, stages.
  Optional date arguments can be provided at the end (e.g. '2023-01' or '2023-01 2023-06').
  If no dates are provided, defaults to the previous month.`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		to := args[0]
		rest := args[1:]

		// Try to parse dates from the end of the args
		var dateArgs []string
		if len(rest) > 0 {
			_, err := parseSingleDatestring(rest[len(rest)-1])
			if err == nil {
				dateArgs = []string{rest[len(rest)-1]}
				rest = rest[:len(rest)-1]

				if len(rest) > 0 {
					_, err := parseSingleDatestring(rest[len(rest)-1])
					if err == nil {
						dateArgs = append([]string{rest[len(rest)-1]}, dateArgs...)
						rest = rest[:len(rest)-1]
					}
				}
			}
		}

		analysisTypes := rest
		if len(analysisTypes) == 0 {
			fmt.Println("Error: No analysis types specified")
			os.Exit(1)
		}

		var start, end time.Time
		var err error
		if len(dateArgs) > 0 {
			start, end, err = parseDateRangeFromArgs(dateArgs)
			if err != nil {
				fmt.Printf("Error parsing dates: %v\n", err)
				os.Exit(1)
			}
		} else {
			// Default to last month
			now := time.Now()
			start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
			end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		}

		params, _ := cmd.Flags().GetStringArray("params")

		if len(params) > 0 && len(params) != len(analysisTypes) {
			fmt.Printf("Error: Number of --params flags (%d) must match number of reports (%d), or be 0.\n", len(params), len(analysisTypes))
			os.Exit(1)
		}

		structuredParams := make([]map[string]string, len(analysisTypes))
		for i, v := range params {
			pMap := make(map[string]string)
			if v != "" {
				pairs := strings.Split(v, ",")
				for _, pair := range pairs {
					kv := strings.SplitN(pair, "=", 2)
					if len(kv) == 2 {
						pMap[kv[0]] = kv[1]
					}
				}
			}
			structuredParams[i] = pMap
		}

		config := SendEmailConfig{
			DbPath:         viper.GetString("database"),
			From:           viper.GetString("from"),
			To:             to,
			ReportName:     viper.GetString("name"),
			Types:          analysisTypes,
			Params:         structuredParams,
			DryRun:         viper.GetBool("dryRun"),
			SendgridApiKey: viper.GetString("sendgrid_api_key"),
			Start:          start,
			End:            end,
		}
		err = sendEmail(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))

	emailCmd.Flags().StringArray("params", nil, "Parameters for reports, matched by index (e.g. --params 'n=20')")
}

func sendEmail(config SendEmailConfig) error {
	actions := make([]Analyser, 0)
	for i, actionName := range config.Types {
		action, err := getActionFromName(actionName)
		if err != nil {
			return fmt.Errorf("Invalid analysis_name: %s", actionName)
		}

		if config.Params != nil && i < len(config.Params) {
			params := config.Params[i]
			if len(params) > 0 {
				if configurable, ok := action.(Configurable); ok {
					err := configurable.Configure(params)
					if err != nil {
						return fmt.Errorf("configuring %s (index %d): %w", actionName, i, err)
					}
				}
			}
		}

		actions = append(actions, action)
	}
	subject, out, err := generateEmailContent(config, actions)
	if err != nil {
		return err
	}

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, out)
		return nil
	}

	if config.SendgridApiKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}

	from := mail.NewEmail("spotify-history-tools", config.From)
	to := mail.NewEmail(config.To, config.To)
	message := mail.NewSingleEmail(from, subject, to, "", out)
	client := sendgrid.NewSendClient(config.SendgridApiKey)

	err = retry.Do(
		func() error {
			response, err := client.Send(message)
			if err != nil {
				return err
			}
			if response.StatusCode/100 == 5 {
				return &sendgridServerError{code: response.StatusCode, body: response.Body}
			}
			if response.StatusCode/100 != 2 {
				return retry.Unrecoverable(fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body))
			}
			return nil
		},
		retry.RetryIf(func(err error) bool {
			if serr, ok := err.(*sendgridServerError); ok {
				fmt.Printf("sendgrid errored, retrying: %v\n", serr)
				return true
			}
			return false
		}),
	)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}

	if len(config.ReportName) > 0 {
		db, err := store.New(config.DbPath)
		if err != nil {
			return fmt.Errorf("Recording last run: %w", err)
		}
		defer db.Close()

		err = db.MarkReportSent(config.ReportName, config.To, time.Now())
		if err != nil {
			return fmt.Errorf("Recording last run: %w", err)
		}
	}

	return nil
}

type sendgridServerError struct {
	code int
	body string
}

func (e *sendgridServerError) Error() string {
	return fmt.Sprintf("sendgrid returned %d: %s", e.code, e.body)
}

func generateEmailContent(config SendEmailConfig, actions []Analyser) (subject string, body string, err error) {
	out := `
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`
	for _, action := range actions {
		out += `
		<div>
`
		out += fmt.Sprintf("<h2>%s for %s to %s:</h2>\n", action.GetName(), config.Start.Format("2006-01-02"), config.End.Format("2006-01-02"))
		analysis, err := action.GetResults(config.DbPath, config.Start, config.End)
		if err != nil {
			return "", "", fmt.Errorf("getting results for %s: %w", action.GetName(), err)
		}

		if analysis.BodyOverride != "" {
			out += analysis.BodyOverride
		} else if len(analysis.results) <= 1 {
			// No listens found
			out += "<div>No listens found.</div>\n"
		} else {
			out += `
			<table>
				<thead>
					<tr>
`
			for _, header := range analysis.results[0] {
				out += fmt.Sprintf("<th>%s</th>", header)
			}
			out += `				</tr>
			</thead>`

			for _, row := range analysis.results[1:] {
				out += "<tr>\n"
				for _, column := range row {
					out += fmt.Sprintf("<td>%s</td>\n", column)
				}
				out += "</tr>\n"

			}
			out += `
				</tbody>
			</table>
`
		}
		out += fmt.Sprintf(`<div>%s</div>
		</div>`, analysis.summary)
	}
	out += `
  </body>
</html>
`

	subjectSuffix := ""
	if len(config.ReportName) > 0 {
		subjectSuffix = ": " + config.ReportName
	}
	subject = fmt.Sprintf("Listening report for %s to %s%s", config.Start.Format("2006-01-02"), config.End.Format("2006-01-02"), subjectSuffix)

	return subject, out, nil
}

func getActionFromName(actionName string) (Analyser, error) {
	// Recreating map every time but it's fine. Pointers required for Configure.
	actionMap := map[string]Analyser{
		"top-n":      &TopNAnalyzer{},
		"fle-report": &FleReportAnalyzer{},
		"stages":     &StagesAnalyzer{},
	}

	action, ok := actionMap[actionName]
	if !ok {
		return nil, fmt.Errorf("Invalid analysis_name: %s", actionName)
	}

	return action, nil
}
