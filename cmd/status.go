// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"

	"github.com/marketscope/msdata/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xeonx/timeago"
)

var statusLimit int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent pipeline runs from the run ledger",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dbURL := viper.GetString("dbUrl")
		if dbURL == "" {
			log.Fatal().Msg("status requires a run ledger; set dbUrl")
		}

		ledger, err := library.NewFromDB(ctx, dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to run ledger")
		}
		defer ledger.Close()

		runs, err := ledger.RecentRuns(ctx, statusLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load recent runs")
		}

		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return
		}

		for _, run := range runs {
			line := fmt.Sprintf("%s  %-7s  %s  filings=%d", run.RunID, run.Status,
				timeago.English.Format(run.StartTime), run.NumFilings)
			if run.FailedAt != "" {
				line = fmt.Sprintf("%s  failed_at=%s", line, run.FailedAt)
			}
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of runs to show")
}
