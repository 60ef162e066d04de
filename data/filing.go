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

import (
	"fmt"
	"strings"
	"time"
)

// Date is a civil date that serializes as YYYY-MM-DD. Filing dates carry no
// time-of-day component and must round-trip through JSON as plain strings.
type Date time.Time

func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, err
	}
	return Date(t), nil
}

func (d Date) String() string {
	return time.Time(d).Format("2006-01-02")
}

func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseDate(strings.Trim(string(raw), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// XBRLFact is one flattened row of a company's structured financial facts.
type XBRLFact struct {
	Taxonomy     string  `json:"taxonomy"`
	Tag          string  `json:"tag"`
	Unit         string  `json:"unit"`
	Start        string  `json:"start,omitempty"`
	End          string  `json:"end"`
	Value        float64 `json:"value"`
	FiscalYear   int     `json:"fy"`
	FiscalPeriod string  `json:"fp"`
	Form         string  `json:"form"`
	Filed        string  `json:"filed"`
}

// FilingRecord is one company's most recent filing of a given form type,
// together with its extracted text sections and structured facts. MarketData
// is nil until the market stage attaches a summary; the filings prefix is
// written before enrichment so the field is omitted when empty.
type FilingRecord struct {
	Ticker     string            `json:"ticker"`
	FilingDate Date              `json:"filing_date"`
	SourceURL  string            `json:"source_url"`
	Sections   map[string]string `json:"sections"`
	XBRLFacts  []*XBRLFact       `json:"xbrl_facts"`
	MarketData *MarketSummary    `json:"market_data,omitempty"`
}
