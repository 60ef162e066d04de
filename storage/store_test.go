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
package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/marketscope/msdata/data"
	"github.com/marketscope/msdata/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// rejectingObjects simulates a bucket that refuses every write.
type rejectingObjects struct{}

func (rejectingObjects) Put(_ context.Context, _ string, _ []byte) error {
	return fmt.Errorf("permission denied")
}

func (rejectingObjects) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("permission denied")
}

func makeBars(numBars int) []*data.Bar {
	bars := make([]*data.Bar, 0, numBars)
	for idx := 0; idx < numBars; idx++ {
		bars = append(bars, &data.Bar{
			Date:     fmt.Sprintf("2025-%02d-%02d", idx/28+1, idx%28+1),
			Open:     100 + float64(idx),
			High:     101 + float64(idx),
			Low:      99 + float64(idx),
			Close:    100.5 + float64(idx),
			AdjClose: 100.4 + float64(idx),
			Volume:   1000 * float64(idx+1),
		})
	}
	return bars
}

var _ = Describe("Store", func() {
	var (
		root  string
		store *storage.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		store = storage.NewStore(storage.NewFilesystem(root))
		ctx = context.Background()
	})

	Describe("filings", func() {
		It("writes one object per record at a deterministic key", func() {
			records := []*data.FilingRecord{
				{
					Ticker:     "AAPL",
					FilingDate: data.NewDate(2025, time.May, 5),
					SourceURL:  "https://www.sec.gov/Archives/edgar/data/320193/000032019325000056/000032019325000056-index.html",
					Sections:   map[string]string{"business": "We make widgets."},
				},
				{
					Ticker:     "MSFT",
					FilingDate: data.NewDate(2025, time.July, 30),
					Sections:   map[string]string{},
				},
			}

			Expect(store.SaveFilings(ctx, records)).To(Succeed())

			Expect(filepath.Join(root, "filings", "AAPL_2025-05-05.json")).To(BeARegularFile())
			Expect(filepath.Join(root, "filings", "MSFT_2025-07-30.json")).To(BeARegularFile())
		})

		It("round-trips ticker and filing date through JSON", func() {
			records := []*data.FilingRecord{{
				Ticker:     "AAPL",
				FilingDate: data.NewDate(2025, time.May, 5),
			}}
			Expect(store.SaveFilings(ctx, records)).To(Succeed())

			body, err := os.ReadFile(filepath.Join(root, "filings", "AAPL_2025-05-05.json"))
			Expect(err).NotTo(HaveOccurred())

			parsed := &data.FilingRecord{}
			Expect(json.Unmarshal(body, parsed)).To(Succeed())
			Expect(parsed.Ticker).To(Equal("AAPL"))
			Expect(parsed.FilingDate.String()).To(Equal("2025-05-05"))
		})

		It("overwrites a prior object at the same key", func() {
			record := &data.FilingRecord{Ticker: "AAPL", FilingDate: data.NewDate(2025, time.May, 5)}
			Expect(store.SaveFilings(ctx, []*data.FilingRecord{record})).To(Succeed())

			record.SourceURL = "https://example.com/updated"
			Expect(store.SaveFilings(ctx, []*data.FilingRecord{record})).To(Succeed())

			body, err := os.ReadFile(filepath.Join(root, "filings", "AAPL_2025-05-05.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("updated"))
		})
	})

	Describe("market data", func() {
		It("round-trips the history table through parquet", func() {
			original := makeBars(100)
			md := &data.MarketData{History: original, Fundamentals: &data.Fundamentals{}}

			Expect(store.SaveMarketData(ctx, "AAPL", md)).To(Succeed())

			loaded, err := store.LoadHistory(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(100))
			Expect(loaded[0].Date).To(Equal(original[0].Date))
			Expect(loaded[99].Close).To(Equal(original[99].Close))
			Expect(loaded[42].Volume).To(Equal(original[42].Volume))
		})

		It("round-trips missing fundamentals as explicit nulls", func() {
			pe := 38.92
			md := &data.MarketData{
				History:      makeBars(5),
				Fundamentals: &data.Fundamentals{TrailingPE: &pe},
			}

			Expect(store.SaveMarketData(ctx, "AAPL", md)).To(Succeed())

			body, err := os.ReadFile(filepath.Join(root, "market", "fundamentals", "AAPL_fundamentals.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`"debtToEquity": null`))

			loaded, err := store.LoadFundamentals(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.TrailingPE).To(HaveValue(Equal(38.92)))
			Expect(loaded.DebtToEquity).To(BeNil())
		})
	})

	Describe("combined snapshot", func() {
		It("writes one timestamped object for the whole run", func() {
			records := []*data.FilingRecord{
				{Ticker: "AAPL", FilingDate: data.NewDate(2025, time.May, 5)},
				{Ticker: "MSFT", FilingDate: data.NewDate(2025, time.July, 30)},
			}
			runTime := time.Date(2025, time.August, 1, 6, 30, 15, 0, time.UTC)

			Expect(store.SaveCombined(ctx, records, runTime)).To(Succeed())

			body, err := os.ReadFile(filepath.Join(root, "combined", "combined_20250801_063015.json"))
			Expect(err).NotTo(HaveOccurred())

			var parsed []*data.FilingRecord
			Expect(json.Unmarshal(body, &parsed)).To(Succeed())
			Expect(parsed).To(HaveLen(2))
		})
	})

	It("surfaces write failures as storage write errors", func() {
		rejecting := storage.NewStore(rejectingObjects{})

		err := rejecting.SaveFilings(ctx, []*data.FilingRecord{
			{Ticker: "AAPL", FilingDate: data.NewDate(2025, time.May, 5)},
		})
		Expect(err).To(MatchError(storage.ErrStorageWrite))
	})
})
