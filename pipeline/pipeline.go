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
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/marketscope/msdata/data"
	"github.com/marketscope/msdata/provider"
	"github.com/marketscope/msdata/storage"
	"github.com/rs/zerolog/log"
)

const (
	StageIngestFilings = "ingest_filings"
	StageIngestMarket  = "ingest_market"
	StageFinalize      = "finalize"
)

// Config carries the per-run pipeline parameters. Defaults mirror the
// production schedule: ten tickers, annual reports, five years of daily
// history, one retry per stage after ten minutes.
type Config struct {
	FormType     string
	TopN         int
	Period       string
	Interval     string
	StageRetries int
	RetryDelay   time.Duration
}

func DefaultConfig() Config {
	return Config{
		FormType:     "10-K",
		TopN:         10,
		Period:       "5y",
		Interval:     "1d",
		StageRetries: 1,
		RetryDelay:   10 * time.Minute,
	}
}

// Pipeline sequences the three ingestion stages. Stages run strictly in
// order; each stage's output is the sole input of the next, and a stage only
// starts after the previous stage's writes completed.
type Pipeline struct {
	Filings provider.FilingProvider
	Market  provider.MarketProvider
	Store   *storage.Store
	Config  Config
}

// Run executes ingest_filings, ingest_market, and finalize. Each stage is
// retried whole after RetryDelay when it fails; once retries are exhausted
// the run is marked failed and no later stage executes. Objects written
// before the failure point stay in place.
func (pipeline *Pipeline) Run(ctx context.Context) (*data.RunSummary, error) {
	summary := &data.RunSummary{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Status:    data.RunSuccess,
	}

	runLogger := log.With().Str("RunID", summary.RunID).Logger()
	runLogger.Info().Msg("starting pipeline run")

	var records []*data.FilingRecord

	err := pipeline.runStage(ctx, StageIngestFilings, func(ctx context.Context) error {
		var err error
		records, err = pipeline.ingestFilings(ctx)
		return err
	})

	if err == nil {
		summary.NumFilings = len(records)
		summary.NumTickers = len(records)
		err = pipeline.runStage(ctx, StageIngestMarket, func(ctx context.Context) error {
			return pipeline.ingestMarket(ctx, records)
		})
	} else {
		summary.FailedAt = StageIngestFilings
	}

	if err == nil {
		err = pipeline.runStage(ctx, StageFinalize, func(ctx context.Context) error {
			return pipeline.finalize(ctx, records)
		})
		if err != nil {
			summary.FailedAt = StageFinalize
		}
	} else if summary.FailedAt == "" {
		summary.FailedAt = StageIngestMarket
	}

	summary.EndTime = time.Now()

	if err != nil {
		summary.Status = data.RunFailed
		summary.ErrorText = err.Error()
		runLogger.Error().Err(err).Str("FailedAt", summary.FailedAt).Msg("pipeline run failed")
		return summary, err
	}

	runTime := summary.EndTime.Sub(summary.StartTime)
	runLogger.Info().Str("RunTime", durafmt.Parse(runTime).String()).
		Int("NumFilings", summary.NumFilings).Msg("pipeline run complete")

	return summary, nil
}

// runStage invokes fn, re-running the whole stage after a delay when it
// fails. Retries restart from scratch; there is no per-ticker resume.
func (pipeline *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageLogger := log.With().Str("Stage", name).Logger()

	var err error
	for attempt := 0; attempt <= pipeline.Config.StageRetries; attempt++ {
		if attempt > 0 {
			stageLogger.Warn().Err(err).Int("Attempt", attempt).
				Str("RetryDelay", pipeline.Config.RetryDelay.String()).Msg("retrying stage")

			select {
			case <-time.After(pipeline.Config.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = fn(ctx); err == nil {
			stageLogger.Info().Msg("stage complete")
			return nil
		}
	}

	stageLogger.Error().Err(err).Msg("stage failed after exhausting retries")
	return err
}

func (pipeline *Pipeline) ingestFilings(ctx context.Context) ([]*data.FilingRecord, error) {
	records, err := pipeline.Filings.FetchFilings(ctx, pipeline.Config.FormType, pipeline.Config.TopN)
	if err != nil {
		return nil, err
	}

	if err := pipeline.Store.SaveFilings(ctx, records); err != nil {
		return nil, err
	}

	return records, nil
}

// ingestMarket persists each ticker's market data and attaches the summary
// to its filing record for the combined snapshot.
func (pipeline *Pipeline) ingestMarket(ctx context.Context, records []*data.FilingRecord) error {
	for _, record := range records {
		md, err := pipeline.Market.FetchMarketData(ctx, record.Ticker, pipeline.Config.Period, pipeline.Config.Interval)
		if err != nil {
			return err
		}

		if err := pipeline.Store.SaveMarketData(ctx, record.Ticker, md); err != nil {
			return err
		}

		record.MarketData = md.Summary()
	}

	return nil
}

func (pipeline *Pipeline) finalize(ctx context.Context, records []*data.FilingRecord) error {
	return pipeline.Store.SaveCombined(ctx, records, time.Now())
}
