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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const constituentsPage = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th></tr>
<tr><td>MMM</td><td>3M</td><td>Industrials</td></tr>
<tr><td>AOS</td><td>A. O. Smith</td><td>Industrials</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td></tr>
<tr><td>BF.B</td><td>Brown-Forman</td><td>Consumer Staples</td></tr>
<tr><td>ABT</td><td>Abbott</td><td>Health Care</td></tr>
</tbody>
</table>
</body></html>`

var _ = Describe("IndexTickerSource", func() {
	var (
		server *httptest.Server
		source *IndexTickerSource
		ctx    context.Context
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, constituentsPage)
		}))
		DeferCleanup(server.Close)

		source = NewIndexTickerSource(server.URL, "MarketScopeBot/1.0")
		ctx = context.Background()
	})

	It("returns the first topN symbols in source order", func() {
		tickers, err := source.TrackedTickers(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(Equal([]string{"MMM", "AOS"}))
	})

	It("replaces class-share dots with dashes", func() {
		tickers, err := source.TrackedTickers(ctx, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(Equal([]string{"MMM", "AOS", "BRK-B", "BF-B", "ABT"}))
	})

	It("returns the whole universe when topN exceeds it", func() {
		tickers, err := source.TrackedTickers(ctx, 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(HaveLen(5))
	})

	It("fails when the reference page errors", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream broken", http.StatusInternalServerError)
		}))
		DeferCleanup(failing.Close)

		_, err := NewIndexTickerSource(failing.URL, "MarketScopeBot/1.0").TrackedTickers(ctx, 5)
		Expect(err).To(MatchError(ErrSourceUnavailable))
	})

	It("fails when the page has no constituents table", func() {
		empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
		}))
		DeferCleanup(empty.Close)

		_, err := NewIndexTickerSource(empty.URL, "MarketScopeBot/1.0").TrackedTickers(ctx, 5)
		Expect(err).To(MatchError(ErrSourceUnavailable))
	})
})

var _ = Describe("FileTickerSource", func() {
	It("reads the Symbol column from a universe file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "universe.csv")
		csv := "Symbol,Security\nMSFT,Microsoft\nBRK.B,Berkshire Hathaway\nNVDA,NVIDIA\n"
		Expect(os.WriteFile(path, []byte(csv), 0o644)).To(Succeed())

		tickers, err := (&FileTickerSource{Path: path}).TrackedTickers(context.Background(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(tickers).To(Equal([]string{"MSFT", "BRK-B"}))
	})

	It("fails when the universe file is missing", func() {
		_, err := (&FileTickerSource{Path: "/nonexistent/universe.csv"}).TrackedTickers(context.Background(), 2)
		Expect(err).To(MatchError(ErrSourceUnavailable))
	})
})
