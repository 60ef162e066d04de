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
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the ingestion pipeline on the configured schedule",
	Long: `The daemon sub-command schedules the ingestion pipeline with the cron
expression configured under pipeline.schedule (daily by default) and runs
until interrupted. Runs are not designed to overlap: a tick that arrives
while a run is still in flight is skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		var running atomic.Bool

		scheduler := cron.New()
		schedule := viper.GetString("pipeline.schedule")

		_, err := scheduler.AddFunc(schedule, func() {
			if !running.CompareAndSwap(false, true) {
				log.Warn().Msg("previous run still in flight; skipping this tick")
				return
			}
			defer running.Store(false)

			if err := executeRun(context.Background()); err != nil {
				log.Error().Err(err).Msg("scheduled run failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("Schedule", schedule).Msg("could not schedule pipeline")
		}

		log.Info().Str("Schedule", schedule).Msg("starting scheduler")
		scheduler.Start()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		log.Info().Msg("shutting down scheduler")
		<-scheduler.Stop().Done()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
