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
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sectionRule bounds one named section with a start and end marker. Markers
// are case-insensitive and the match spans line breaks. RE2 has no lookahead
// so each rule carries both markers explicitly.
type sectionRule struct {
	name  string
	start *regexp.Regexp
	end   *regexp.Regexp
}

// sectionRules is the fixed, ordered set of extraction rules applied to a
// filing's rendered text. Markers follow the standard annual-report item
// numbering.
var sectionRules = []sectionRule{
	{
		name:  "business",
		start: regexp.MustCompile(`(?i)Item\s+1\.\s+Business`),
		end:   regexp.MustCompile(`(?i)Item\s+1A\.`),
	},
	{
		name:  "risk_factors",
		start: regexp.MustCompile(`(?i)Item\s+1A\.\s+Risk\s+Factors`),
		end:   regexp.MustCompile(`(?i)Item\s+1B\.`),
	},
	{
		name:  "mdna",
		start: regexp.MustCompile(`(?i)Item\s+7\.\s+Management`),
		end:   regexp.MustCompile(`(?i)Item\s+7A\.`),
	},
}

// ExtractSections converts filing markup to plain text and pulls out the
// named sections. A rule that finds no match contributes no entry; section
// extraction never fails the filing.
func ExtractSections(rawMarkup string) map[string]string {
	text := markupToText(rawMarkup)

	sections := make(map[string]string, len(sectionRules))
	for _, rule := range sectionRules {
		startLoc := rule.start.FindStringIndex(text)
		if startLoc == nil {
			continue
		}

		rest := text[startLoc[1]:]
		endLoc := rule.end.FindStringIndex(rest)
		if endLoc == nil {
			continue
		}

		sections[rule.name] = strings.TrimSpace(rest[:endLoc[0]])
	}

	return sections
}

func markupToText(rawMarkup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		// malformed markup degrades to raw text; the rules still apply
		return rawMarkup
	}
	return doc.Text()
}
