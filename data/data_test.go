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
package data_test

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/marketscope/msdata/data"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	It("serializes as a plain date string", func() {
		body, err := json.Marshal(data.NewDate(2025, time.March, 14))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(`"2025-03-14"`))
	})

	It("round-trips through JSON", func() {
		original := data.NewDate(2024, time.December, 31)

		body, err := json.Marshal(original)
		Expect(err).NotTo(HaveOccurred())

		var parsed data.Date
		Expect(json.Unmarshal(body, &parsed)).To(Succeed())
		Expect(parsed.String()).To(Equal("2024-12-31"))
	})

	It("rejects values that are not dates", func() {
		var parsed data.Date
		Expect(json.Unmarshal([]byte(`"not-a-date"`), &parsed)).NotTo(Succeed())
	})
})

var _ = Describe("MarketData summary", func() {
	makeHistory := func(numBars int) []*data.Bar {
		bars := make([]*data.Bar, 0, numBars)
		for idx := 0; idx < numBars; idx++ {
			bars = append(bars, &data.Bar{
				Date:  fmt.Sprintf("2025-01-%02d", idx%28+1),
				Close: float64(100 + idx),
			})
		}
		return bars
	}

	It("keeps only the last five bars of history", func() {
		md := &data.MarketData{History: makeHistory(100), Fundamentals: &data.Fundamentals{}}

		summary := md.Summary()
		Expect(summary.RecentHistory).To(HaveLen(5))
		Expect(summary.RecentHistory[4].Close).To(Equal(199.0))
		Expect(summary.RecentHistory[0].Close).To(Equal(195.0))
	})

	It("keeps the whole history when shorter than the tail", func() {
		md := &data.MarketData{History: makeHistory(3), Fundamentals: &data.Fundamentals{}}

		Expect(md.Summary().RecentHistory).To(HaveLen(3))
	})

	It("carries the fundamentals through unchanged", func() {
		pe := 31.5
		md := &data.MarketData{
			History:      makeHistory(10),
			Fundamentals: &data.Fundamentals{TrailingPE: &pe},
		}

		summary := md.Summary()
		Expect(summary.Fundamentals.TrailingPE).To(HaveValue(Equal(31.5)))
		Expect(summary.Fundamentals.ForwardPE).To(BeNil())
	})
})

var _ = Describe("Fundamentals", func() {
	It("persists missing metrics as explicit nulls", func() {
		pe := 28.4
		body, err := json.Marshal(&data.Fundamentals{TrailingPE: &pe})
		Expect(err).NotTo(HaveOccurred())

		Expect(string(body)).To(ContainSubstring(`"debtToEquity":null`))
		Expect(string(body)).To(ContainSubstring(`"returnOnEquity":null`))
		Expect(string(body)).To(ContainSubstring(`"forwardPE":null`))
		Expect(string(body)).To(ContainSubstring(`"trailingPE":28.4`))
	})
})
