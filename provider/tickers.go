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
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// IndexTickerSource scrapes the tracked universe from an HTML reference page
// carrying a constituents table with a Symbol column.
type IndexTickerSource struct {
	URL       string
	UserAgent string

	client *resty.Client
}

func NewIndexTickerSource(url string, userAgent string) *IndexTickerSource {
	return &IndexTickerSource{
		URL:       url,
		UserAgent: userAgent,
		client:    resty.New(),
	}
}

func (source *IndexTickerSource) TrackedTickers(ctx context.Context, topN int) ([]string, error) {
	resp, err := source.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", source.UserAgent).
		Get(source.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err.Error())
	}

	if resp.StatusCode() >= 400 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Url", source.URL).Msg("error when requesting reference list")
		return nil, fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode())
	}

	tickers, err := parseConstituents(resp.Body())
	if err != nil {
		return nil, err
	}

	return normalizeTickers(tickers, topN), nil
}

// parseConstituents extracts the Symbol column of the first wikitable in
// document order.
func parseConstituents(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err.Error())
	}

	table := doc.Find("table.wikitable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no constituents table in document", ErrSourceUnavailable)
	}

	symbolCol := -1
	table.Find("th").EachWithBreak(func(idx int, cell *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(cell.Text()), "Symbol") {
			symbolCol = idx
			return false
		}
		return true
	})
	if symbolCol == -1 {
		return nil, fmt.Errorf("%w: constituents table has no Symbol column", ErrSourceUnavailable)
	}

	var tickers []string
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= symbolCol {
			return
		}
		if symbol := strings.TrimSpace(cells.Eq(symbolCol).Text()); symbol != "" {
			tickers = append(tickers, symbol)
		}
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: constituents table has no rows", ErrSourceUnavailable)
	}

	return tickers, nil
}

// FileTickerSource reads the tracked universe from a local CSV file with a
// Symbol column. Used by deployments that pin the universe instead of
// scraping the reference page.
type FileTickerSource struct {
	Path string
}

type universeRow struct {
	Symbol string `csv:"Symbol"`
}

func (source *FileTickerSource) TrackedTickers(_ context.Context, topN int) ([]string, error) {
	fh, err := os.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err.Error())
	}
	defer fh.Close()

	var rows []*universeRow
	if err := gocsv.UnmarshalFile(fh, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err.Error())
	}

	tickers := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Symbol != "" {
			tickers = append(tickers, row.Symbol)
		}
	}

	return normalizeTickers(tickers, topN), nil
}

// normalizeTickers rewrites class-share separators to match the downstream
// provider convention and truncates to topN in source order.
func normalizeTickers(tickers []string, topN int) []string {
	normalized := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		normalized = append(normalized, strings.ReplaceAll(ticker, ".", "-"))
	}

	if topN > 0 && len(normalized) > topN {
		normalized = normalized[:topN]
	}

	return normalized
}
