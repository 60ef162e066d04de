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

	"github.com/marketscope/msdata/healthcheck"
	"github.com/marketscope/msdata/library"
	"github.com/marketscope/msdata/pipeline"
	"github.com/marketscope/msdata/provider"
	"github.com/marketscope/msdata/secrets"
	"github.com/marketscope/msdata/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one ingestion pipeline run",
	Long: `The run sub-command executes the full three-stage ingestion pipeline once,
ignoring the daemon schedule. When a run ledger is configured the run takes
the run lease first and records its outcome when finished.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if err := executeRun(ctx); err != nil {
			log.Fatal().Err(err).Msg("pipeline run failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildPipeline wires the configured adapters into a pipeline. The resolver
// is constructed once per run and shared by every component that needs a
// secret, keeping the memoize-once behavior without process-global state.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	resolver := secrets.NewResolver(secrets.NewStore())

	var tickers provider.TickerSource
	switch source := viper.GetString("tickers.source"); source {
	case "file":
		tickers = &provider.FileTickerSource{Path: viper.GetString("tickers.file")}
	default:
		tickers = provider.NewIndexTickerSource(
			viper.GetString("tickers.index_url"), viper.GetString("tickers.user_agent"))
	}

	objects, err := storage.NewObjectStore(ctx, resolver)
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Filings: provider.NewEdgar(tickers, resolver, viper.GetDuration("pipeline.min_request_interval")),
		Market:  provider.NewMarketAPI(),
		Store:   storage.NewStore(objects),
		Config: pipeline.Config{
			FormType:     viper.GetString("pipeline.form_type"),
			TopN:         viper.GetInt("pipeline.top_n"),
			Period:       viper.GetString("pipeline.period"),
			Interval:     viper.GetString("pipeline.interval"),
			StageRetries: viper.GetInt("pipeline.stage_retries"),
			RetryDelay:   viper.GetDuration("pipeline.retry_delay"),
		},
	}, nil
}

func executeRun(ctx context.Context) error {
	ingest, err := buildPipeline(ctx)
	if err != nil {
		return err
	}

	var ledger *library.Library
	if dbURL := viper.GetString("dbUrl"); dbURL != "" {
		ledger, err = library.NewFromDB(ctx, dbURL)
		if err != nil {
			return err
		}
		defer ledger.Close()

		if err := ledger.AcquireRunLease(ctx); err != nil {
			return err
		}
		defer ledger.ReleaseRunLease(ctx)
	}

	summary, runErr := ingest.Run(ctx)

	if ledger != nil {
		if err := ledger.SaveRun(ctx, summary); err != nil {
			log.Error().Err(err).Str("RunID", summary.RunID).Msg("could not record run in ledger")
		}
	}

	if runErr != nil {
		healthcheck.PingFailure(summary.RunID)
		return runErr
	}

	healthcheck.PingSuccess(summary.RunID)
	return nil
}
