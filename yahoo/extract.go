// Copyright 2024
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
package yahoo

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/stock-ledger/sldata/data"
)

// CurrencyLookup resolves a ticker's recorded currency code; an empty
// string means none is recorded.
type CurrencyLookup interface {
	CurrencyCode(ctx context.Context, ticker string) (string, error)
}

// Extractor turns provider statements into rows matching a destination
// table's column contract.
type Extractor struct {
	Client     *Client
	Currencies CurrencyLookup
}

// Extract fetches the (table, frequency) statement for one ticker and
// normalizes it against the expected column set. Every returned row
// carries exactly the expected columns. Any provider failure, including
// an empty statement, returns an error; the caller marks the ticker
// unavailable and moves on.
func (extractor *Extractor) Extract(ctx context.Context, ticker string, table data.Table, freq data.Frequency, expectedColumns []string) ([]data.Row, error) {
	statement, err := extractor.Client.FetchStatement(ctx, ticker, table, freq)
	if err != nil {
		return nil, err
	}

	if len(statement.Periods) == 0 {
		// an empty statement is indistinguishable from "no data available"
		return nil, ErrNoData
	}

	currency, err := extractor.Currencies.CurrencyCode(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		log.Debug().Str("Ticker", ticker).Msg("no currency code recorded, using unavailable marker")
		currency = data.CurrencyUnavailable
	}

	insertDate := time.Now().UTC().Truncate(24 * time.Hour)

	rows := make([]data.Row, 0, len(statement.Periods))
	seen := make(map[time.Time]struct{}, len(statement.Periods))
	for _, period := range statement.Periods {
		// a repeated period would hit the same (ticker, report_date,
		// frequency) row twice inside the single upsert statement
		if _, ok := seen[period.EndDate]; ok {
			log.Debug().Str("Ticker", ticker).Time("ReportDate", period.EndDate).
				Msg("duplicate reporting period dropped")
			continue
		}
		seen[period.EndDate] = struct{}{}

		row := data.Row{
			"ticker":        ticker,
			"report_date":   period.EndDate,
			"currency_code": currency,
			"frequency":     freq.String(),
			"insert_date":   insertDate,
		}

		for item, value := range period.Items {
			row[NormalizeColumn(item)] = value
		}

		rows = append(rows, Reconcile(row, expectedColumns))
	}

	return rows, nil
}

// NormalizeColumn maps a provider line-item name onto the storage naming
// convention: lower-case with single underscores for spaces and camelCase
// word boundaries, e.g. "totalCashFromOperatingActivities" ->
// "total_cash_from_operating_activities".
func NormalizeColumn(name string) string {
	builder := strings.Builder{}
	builder.Grow(len(name) + 8)

	prevUnderscore := false
	for idx, r := range name {
		switch {
		case r == ' ' || r == '_':
			if !prevUnderscore && idx > 0 {
				builder.WriteByte('_')
				prevUnderscore = true
			}
		case unicode.IsUpper(r):
			if !prevUnderscore && idx > 0 {
				builder.WriteByte('_')
			}
			builder.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
		default:
			builder.WriteRune(r)
			prevUnderscore = false
		}
	}

	return builder.String()
}

// Reconcile forces a row onto the destination column contract: columns
// the table does not track are dropped first, then columns the provider
// did not report are null-filled. The order matters; running the fill
// before the drop could leave a row with extra columns and fail the
// batched insert.
func Reconcile(row data.Row, expectedColumns []string) data.Row {
	expected := make(map[string]struct{}, len(expectedColumns))
	for _, col := range expectedColumns {
		expected[col] = struct{}{}
	}

	for col := range row {
		if _, ok := expected[col]; !ok {
			delete(row, col)
		}
	}

	for _, col := range expectedColumns {
		if _, ok := row[col]; !ok {
			row[col] = nil
		}
	}

	return row
}
