// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

// Package waithint extracts server-suggested wait durations from error
// responses. The platform phrases rate-limit hints inconsistently: sometimes
// a structured retry_after or timeout field, sometimes free text in Russian
// ("подождите 30 секунд") or English ("try again in 30 seconds"). Parse
// recognizes all observed phrasings and returns the first match.
package waithint

import (
	"regexp"
	"strconv"
)

// patterns are tried in order; the first submatch wins. Structured fields
// are listed before free-text phrasings so a JSON body with both a
// retry_after field and prose yields the field value.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry_after["']?\s*:\s*(\d+)`),
	regexp.MustCompile(`(?i)timeout["']?\s*:\s*(\d+)`),
	regexp.MustCompile(`(?i)подожди(?:те)?\s*(\d+)`),
	regexp.MustCompile(`(?i)wait\s*(\d+)`),
	regexp.MustCompile(`(?i)try again in\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*секунд`),
}

// Parse extracts a wait duration in seconds from response text.
// Returns (0, false) when no recognized pattern matches.
func Parse(text string) (int, bool) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		seconds, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return seconds, true
	}
	return 0, false
}
