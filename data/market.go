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
package data

// Bar is one row of a ticker's historical price series.
type Bar struct {
	Date     string  `json:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open     float64 `json:"open" parquet:"name=open, type=DOUBLE"`
	High     float64 `json:"high" parquet:"name=high, type=DOUBLE"`
	Low      float64 `json:"low" parquet:"name=low, type=DOUBLE"`
	Close    float64 `json:"close" parquet:"name=close, type=DOUBLE"`
	AdjClose float64 `json:"adjClose" parquet:"name=adj_close, type=DOUBLE"`
	Volume   float64 `json:"volume" parquet:"name=volume, type=DOUBLE"`
}

// Fundamentals is the fixed set of ratios captured from the provider's info
// snapshot. Fields are pointers so a metric absent upstream persists as an
// explicit null rather than a missing key.
type Fundamentals struct {
	TrailingPE     *float64 `json:"trailingPE"`
	ForwardPE      *float64 `json:"forwardPE"`
	ReturnOnEquity *float64 `json:"returnOnEquity"`
	DebtToEquity   *float64 `json:"debtToEquity"`
}

// MarketData bundles one ticker's full history with its fundamentals snapshot.
type MarketData struct {
	History      []*Bar        `json:"history"`
	Fundamentals *Fundamentals `json:"fundamentals"`
}

// recentHistoryRows is the number of trailing bars embedded in each enriched
// filing record.
const recentHistoryRows = 5

// Summary reduces the bundle to the fundamentals plus the history tail; the
// full history is not retained on filing records after persistence.
func (md *MarketData) Summary() *MarketSummary {
	tail := md.History
	if len(tail) > recentHistoryRows {
		tail = tail[len(tail)-recentHistoryRows:]
	}
	return &MarketSummary{
		Fundamentals:  md.Fundamentals,
		RecentHistory: tail,
	}
}

// MarketSummary is the market context attached to a filing record before the
// combined snapshot is written.
type MarketSummary struct {
	Fundamentals  *Fundamentals `json:"fundamentals"`
	RecentHistory []*Bar        `json:"recent_history"`
}
