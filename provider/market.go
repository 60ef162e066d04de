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
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/marketscope/msdata/data"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// MarketAPI fetches historical quotes and an info snapshot from a
// Yahoo-compatible quote service. No retry logic lives here; failures
// propagate to the orchestration boundary.
type MarketAPI struct {
	// BaseURL of the quote service. Overridable for tests.
	BaseURL string

	client *resty.Client
}

func NewMarketAPI() *MarketAPI {
	return &MarketAPI{
		BaseURL: "https://query1.finance.yahoo.com",
		client:  resty.New(),
	}
}

// FetchMarketData retrieves a ticker's price history over the requested
// period and interval plus its fundamentals snapshot.
func (api *MarketAPI) FetchMarketData(ctx context.Context, ticker string, period string, interval string) (*data.MarketData, error) {
	history, err := api.History(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}

	fundamentals, err := api.Info(ctx, ticker)
	if err != nil {
		return nil, err
	}

	log.Info().Str("Ticker", ticker).Int("NumBars", len(history)).Msg("fetched market data")

	return &data.MarketData{
		History:      history,
		Fundamentals: fundamentals,
	}, nil
}

// History returns the ticker's OHLCV series, one bar per interval.
func (api *MarketAPI) History(ctx context.Context, ticker string, period string, interval string) ([]*data.Bar, error) {
	resp, err := api.client.R().
		SetContext(ctx).
		SetQueryParam("range", period).
		SetQueryParam("interval", interval).
		SetQueryParam("events", "div,split").
		Get(fmt.Sprintf("%s/v8/finance/chart/%s", api.BaseURL, ticker))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Ticker", ticker).Msg("error when requesting chart")
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	result := gjson.GetBytes(resp.Body(), "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("%w: empty chart result for %s", ErrSourceUnavailable, ticker)
	}

	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()
	adjCloses := result.Get("indicators.adjclose.0.adjclose").Array()

	bars := make([]*data.Bar, 0, len(timestamps))
	for idx, ts := range timestamps {
		// days with no trade report null quote entries
		if idx >= len(closes) || closes[idx].Type == gjson.Null {
			continue
		}

		bar := &data.Bar{
			Date:   time.Unix(ts.Int(), 0).UTC().Format("2006-01-02"),
			Open:   at(opens, idx),
			High:   at(highs, idx),
			Low:    at(lows, idx),
			Close:  closes[idx].Float(),
			Volume: at(volumes, idx),
		}
		if idx < len(adjCloses) {
			bar.AdjClose = adjCloses[idx].Float()
		} else {
			bar.AdjClose = bar.Close
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// Info returns the fixed fundamentals snapshot. A metric absent from the
// upstream response stays nil and persists as an explicit null.
func (api *MarketAPI) Info(ctx context.Context, ticker string) (*data.Fundamentals, error) {
	resp, err := api.client.R().
		SetContext(ctx).
		SetQueryParam("modules", "summaryDetail,financialData").
		Get(fmt.Sprintf("%s/v10/finance/quoteSummary/%s", api.BaseURL, ticker))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Ticker", ticker).Msg("error when requesting quote summary")
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	summary := gjson.GetBytes(resp.Body(), "quoteSummary.result.0")

	return &data.Fundamentals{
		TrailingPE:     metric(summary, "summaryDetail.trailingPE.raw"),
		ForwardPE:      metric(summary, "summaryDetail.forwardPE.raw"),
		ReturnOnEquity: metric(summary, "financialData.returnOnEquity.raw"),
		DebtToEquity:   metric(summary, "financialData.debtToEquity.raw"),
	}, nil
}

func at(values []gjson.Result, idx int) float64 {
	if idx >= len(values) {
		return 0
	}
	return values[idx].Float()
}

func metric(summary gjson.Result, path string) *float64 {
	value := summary.Get(path)
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}
	parsed := value.Float()
	return &parsed
}
