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
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/marketscope/msdata/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrStorageWrite = errors.New("storage write rejected")
)

// ObjectStore puts and gets opaque objects in one durable bucket by key.
// Every logical object in the pipeline lives behind this interface; the
// production adapter is selected by configuration.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Store persists pipeline output under deterministic key prefixes. All
// writes are unconditional overwrites; re-running a pipeline replaces prior
// same-key objects. There is no transactional grouping across save calls.
type Store struct {
	objects ObjectStore
}

func NewStore(objects ObjectStore) *Store {
	return &Store{objects: objects}
}

func key(prefix string, filename string) string {
	return fmt.Sprintf("%s/%s", prefix, filename)
}

// SaveFilings writes one JSON object per filing record at
// filings/{ticker}_{filing_date}.json.
func (store *Store) SaveFilings(ctx context.Context, records []*data.FilingRecord) error {
	for _, record := range records {
		body, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}

		objKey := key("filings", fmt.Sprintf("%s_%s.json", record.Ticker, record.FilingDate))
		if err := store.objects.Put(ctx, objKey, body); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrStorageWrite, objKey, err.Error())
		}

		log.Info().Str("Key", objKey).Msg("saved filing")
	}

	return nil
}

// SaveMarketData writes the history table as a columnar parquet object at
// market/history/{ticker}_history.parquet and the fundamentals as JSON at
// market/fundamentals/{ticker}_fundamentals.json.
func (store *Store) SaveMarketData(ctx context.Context, ticker string, md *data.MarketData) error {
	parquetBody, err := barsToParquet(md.History)
	if err != nil {
		return err
	}

	histKey := key("market/history", fmt.Sprintf("%s_history.parquet", ticker))
	if err := store.objects.Put(ctx, histKey, parquetBody); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrStorageWrite, histKey, err.Error())
	}

	fundBody, err := json.MarshalIndent(md.Fundamentals, "", "  ")
	if err != nil {
		return err
	}

	fundKey := key("market/fundamentals", fmt.Sprintf("%s_fundamentals.json", ticker))
	if err := store.objects.Put(ctx, fundKey, fundBody); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrStorageWrite, fundKey, err.Error())
	}

	log.Info().Str("Ticker", ticker).Int("NumBars", len(md.History)).Msg("saved market data")
	return nil
}

// SaveCombined writes the full enriched record list as one JSON object at
// combined/combined_{timestamp}.json. The timestamp makes the combined
// prefix append-only in effect.
func (store *Store) SaveCombined(ctx context.Context, records []*data.FilingRecord, runTime time.Time) error {
	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	objKey := key("combined", fmt.Sprintf("combined_%s.json", runTime.Format("20060102_150405")))
	if err := store.objects.Put(ctx, objKey, body); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrStorageWrite, objKey, err.Error())
	}

	log.Info().Str("Key", objKey).Int("NumRecords", len(records)).Msg("saved combined snapshot")
	return nil
}

// LoadHistory reads a ticker's history table back from its parquet object.
func (store *Store) LoadHistory(ctx context.Context, ticker string) ([]*data.Bar, error) {
	body, err := store.objects.Get(ctx, key("market/history", fmt.Sprintf("%s_history.parquet", ticker)))
	if err != nil {
		return nil, err
	}

	return barsFromParquet(body)
}

// LoadFundamentals reads a ticker's fundamentals back from its JSON object.
func (store *Store) LoadFundamentals(ctx context.Context, ticker string) (*data.Fundamentals, error) {
	body, err := store.objects.Get(ctx, key("market/fundamentals", fmt.Sprintf("%s_fundamentals.json", ticker)))
	if err != nil {
		return nil, err
	}

	fundamentals := &data.Fundamentals{}
	if err := json.Unmarshal(body, fundamentals); err != nil {
		return nil, err
	}

	return fundamentals, nil
}
