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
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/marketscope/msdata/data"
	"github.com/marketscope/msdata/secrets"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// IdentitySecretName holds the declared identity sent as the User-Agent on
// every filing-provider request, as required by the provider's fair-access
// policy.
const IdentitySecretName = "marketscope-EDGAR_IDENTITY"

// Edgar fetches regulatory filings, their text sections, and company facts
// from the EDGAR REST endpoints.
type Edgar struct {
	Tickers TickerSource

	// ArchiveURL serves filing documents, DataURL the submissions and
	// companyfacts APIs. Overridable for tests.
	ArchiveURL string
	DataURL    string

	resolver *secrets.Resolver
	client   *resty.Client
	limiter  *rate.Limiter
	cikMap   map[string]int64
}

// NewEdgar creates a filing provider that paces successive requests at
// minInterval to respect the upstream rate limit.
func NewEdgar(tickers TickerSource, resolver *secrets.Resolver, minInterval time.Duration) *Edgar {
	return &Edgar{
		Tickers:    tickers,
		ArchiveURL: "https://www.sec.gov",
		DataURL:    "https://data.sec.gov",
		resolver:   resolver,
		client:     resty.New(),
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// FetchFilings retrieves the latest filing of the given form type for each of
// the topN tracked tickers. A failure on any ticker aborts the whole batch;
// partial-success handling is a product decision that has not been made.
// Output order matches ticker order.
func (edgar *Edgar) FetchFilings(ctx context.Context, formType string, topN int) ([]*data.FilingRecord, error) {
	identity, err := edgar.resolver.Get(ctx, IdentitySecretName)
	if err != nil {
		return nil, err
	}

	tickers, err := edgar.Tickers.TrackedTickers(ctx, topN)
	if err != nil {
		return nil, err
	}

	if err := edgar.loadCIKMap(ctx, identity); err != nil {
		return nil, err
	}

	records := make([]*data.FilingRecord, 0, len(tickers))
	for _, ticker := range tickers {
		record, err := edgar.fetchFiling(ctx, identity, ticker, formType)
		if err != nil {
			return nil, fmt.Errorf("fetch filing for %s: %w", ticker, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func (edgar *Edgar) fetchFiling(ctx context.Context, identity string, ticker string, formType string) (*data.FilingRecord, error) {
	cik, ok := edgar.cikMap[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: no registrant id for %s", ErrNoFiling, ticker)
	}

	filing, err := edgar.latestFiling(ctx, identity, cik, formType)
	if err != nil {
		return nil, err
	}

	if err := edgar.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	markup, err := edgar.filingDocument(ctx, identity, cik, filing)
	if err != nil {
		return nil, err
	}
	sections := ExtractSections(markup)

	if err := edgar.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	facts, err := edgar.companyFacts(ctx, identity, cik)
	if err != nil {
		return nil, err
	}

	log.Info().Str("Ticker", ticker).Str("Accession", filing.accession).
		Int("NumSections", len(sections)).Int("NumFacts", len(facts)).
		Msg("fetched filing")

	return &data.FilingRecord{
		Ticker:     ticker,
		FilingDate: filing.date,
		SourceURL:  edgar.indexURL(cik, filing.accession),
		Sections:   sections,
		XBRLFacts:  facts,
	}, nil
}

type filingRef struct {
	accession  string
	date       data.Date
	primaryDoc string
}

// loadCIKMap fetches the ticker to registrant-id mapping once per run.
func (edgar *Edgar) loadCIKMap(ctx context.Context, identity string) error {
	if edgar.cikMap != nil {
		return nil
	}

	body, err := edgar.get(ctx, identity, fmt.Sprintf("%s/files/company_tickers.json", edgar.ArchiveURL))
	if err != nil {
		return err
	}

	cikMap := make(map[string]int64)
	gjson.ParseBytes(body).ForEach(func(_, entry gjson.Result) bool {
		cikMap[entry.Get("ticker").String()] = entry.Get("cik_str").Int()
		return true
	})

	if len(cikMap) == 0 {
		return fmt.Errorf("%w: empty registrant map", ErrSourceUnavailable)
	}

	edgar.cikMap = cikMap
	return nil
}

// latestFiling returns the most recent filing of the form type from the
// registrant's submissions feed. The feed lists filings newest first.
func (edgar *Edgar) latestFiling(ctx context.Context, identity string, cik int64, formType string) (*filingRef, error) {
	body, err := edgar.get(ctx, identity, fmt.Sprintf("%s/submissions/CIK%010d.json", edgar.DataURL, cik))
	if err != nil {
		return nil, err
	}

	recent := gjson.GetBytes(body, "filings.recent")
	forms := recent.Get("form").Array()
	accessions := recent.Get("accessionNumber").Array()
	dates := recent.Get("filingDate").Array()
	primaryDocs := recent.Get("primaryDocument").Array()

	for idx, form := range forms {
		if form.String() != formType {
			continue
		}

		if idx >= len(accessions) || idx >= len(dates) || idx >= len(primaryDocs) {
			return nil, fmt.Errorf("%w: malformed submissions feed", ErrSourceUnavailable)
		}

		date, err := data.ParseDate(dates[idx].String())
		if err != nil {
			return nil, fmt.Errorf("parse filing date: %w", err)
		}

		return &filingRef{
			accession:  accessions[idx].String(),
			date:       date,
			primaryDoc: primaryDocs[idx].String(),
		}, nil
	}

	return nil, fmt.Errorf("%w: no %s filing", ErrNoFiling, formType)
}

func (edgar *Edgar) filingDocument(ctx context.Context, identity string, cik int64, filing *filingRef) (string, error) {
	url := fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s",
		edgar.ArchiveURL, cik, stripAccessionSeparators(filing.accession), filing.primaryDoc)

	body, err := edgar.get(ctx, identity, url)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// companyFacts flattens the registrant's structured facts into rows, one per
// reported value.
func (edgar *Edgar) companyFacts(ctx context.Context, identity string, cik int64) ([]*data.XBRLFact, error) {
	body, err := edgar.get(ctx, identity, fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", edgar.DataURL, cik))
	if err != nil {
		return nil, err
	}

	var facts []*data.XBRLFact
	gjson.GetBytes(body, "facts").ForEach(func(taxonomy, tags gjson.Result) bool {
		tags.ForEach(func(tag, detail gjson.Result) bool {
			detail.Get("units").ForEach(func(unit, rows gjson.Result) bool {
				rows.ForEach(func(_, row gjson.Result) bool {
					facts = append(facts, &data.XBRLFact{
						Taxonomy:     taxonomy.String(),
						Tag:          tag.String(),
						Unit:         unit.String(),
						Start:        row.Get("start").String(),
						End:          row.Get("end").String(),
						Value:        row.Get("val").Float(),
						FiscalYear:   int(row.Get("fy").Int()),
						FiscalPeriod: row.Get("fp").String(),
						Form:         row.Get("form").String(),
						Filed:        row.Get("filed").String(),
					})
					return true
				})
				return true
			})
			return true
		})
		return true
	})

	return facts, nil
}

// indexURL composes the canonical public index page for a filing. The
// registrant id loses its leading zeros and the accession number its
// separators.
func (edgar *Edgar) indexURL(cik int64, accession string) string {
	accNo := stripAccessionSeparators(accession)
	return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s-index.html", edgar.ArchiveURL, cik, accNo, accNo)
}

func stripAccessionSeparators(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}

func (edgar *Edgar) get(ctx context.Context, identity string, url string) ([]byte, error) {
	resp, err := edgar.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", identity).
		Get(url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Url", url).Msg("error when requesting url")
		return nil, fmt.Errorf("%w: %d from %s", ErrInvalidStatusCode, resp.StatusCode(), url)
	}

	return resp.Body(), nil
}
