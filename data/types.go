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
package data

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownTable     = errors.New("unknown statement table")
	ErrUnknownFrequency = errors.New("unknown frequency")
)

// CurrencyUnavailable is stored in the currency_code column when the
// valid_tickers ledger has no currency recorded for a ticker. Yahoo omits
// currency metadata for some symbols so this is a degraded-mode marker,
// not an error.
const CurrencyUnavailable = "Unavailable"

// Table names a destination statement table in the stocks schema.
type Table string

const (
	Cashflow     Table = "cashflow"
	BalanceSheet Table = "balance_sheet"
	IncomeStmt   Table = "income_stmt"
	Financials   Table = "financials"
)

// Tables lists every refreshable statement table.
var Tables = []Table{Cashflow, BalanceSheet, IncomeStmt, Financials}

func ParseTable(name string) (Table, error) {
	for _, tbl := range Tables {
		if string(tbl) == name {
			return tbl, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

func (tbl Table) String() string {
	return string(tbl)
}

// Frequency selects between annual and quarterly reporting periods.
type Frequency string

const (
	Annual    Frequency = "annual"
	Quarterly Frequency = "quarterly"
)

func ParseFrequency(name string) (Frequency, error) {
	switch Frequency(name) {
	case Annual, Quarterly:
		return Frequency(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, name)
}

func (freq Frequency) String() string {
	return string(freq)
}

// AvailabilityColumn returns the valid_tickers column that records whether
// the last extraction attempt for (table, frequency) succeeded, e.g.
// cashflow_annual_available.
func AvailabilityColumn(tbl Table, freq Frequency) string {
	return fmt.Sprintf("%s_%s_available", tbl, freq)
}

// Row is one normalized statement row keyed by destination column name.
// After schema reconciliation a row carries exactly the destination
// table's column set.
type Row map[string]any

// Columns returns the row's column names in sorted order.
func (row Row) Columns() []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// ValidTicker is one row of the stocks.valid_tickers ledger. The
// availability columns degrade one way: the refresh pipeline only ever
// sets them false, re-validation happens outside this program.
type ValidTicker struct {
	Ticker       string   `db:"ticker" csv:"ticker"`
	CurrencyCode *string  `db:"currency_code" csv:"currency_code"`
	MarketCap    *float64 `db:"market_cap" csv:"market_cap"`
	TotalRevenue *float64 `db:"total_revenue" csv:"total_revenue"`
	FreeCashFlow *float64 `db:"free_cash_flow" csv:"free_cash_flow"`
	TotalAssets  *float64 `db:"total_assets" csv:"total_assets"`
	Validity     *bool    `db:"validity" csv:"validity"`
}
