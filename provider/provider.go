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
	"errors"

	"github.com/marketscope/msdata/data"
)

var (
	ErrSourceUnavailable = errors.New("reference source unavailable")
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrNoFiling          = errors.New("no filing found")
)

// TickerSource returns the tracked ticker universe, truncated to topN, in
// the source's natural order.
type TickerSource interface {
	TrackedTickers(ctx context.Context, topN int) ([]string, error)
}

// FilingProvider retrieves regulatory filings and structured facts. The
// pipeline core is written against this interface so it can run against
// fakes in tests.
type FilingProvider interface {
	FetchFilings(ctx context.Context, formType string, topN int) ([]*data.FilingRecord, error)
}

// MarketProvider retrieves a ticker's price history and fundamentals.
type MarketProvider interface {
	FetchMarketData(ctx context.Context, ticker string, period string, interval string) (*data.MarketData, error)
}
