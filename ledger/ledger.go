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

// Package ledger reads and degrades the stocks.valid_tickers table: one
// row per ticker with an availability flag per (statement table,
// frequency) pair. The refresh pipeline only ever flips availability to
// false; tickers are re-admitted by an external validation sweep, never
// here.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/stock-ledger/sldata/data"
	"github.com/stock-ledger/sldata/postgres"
)

type Ledger struct {
	DB *postgres.Client

	// currency codes are immutable once recorded, so cache point lookups
	// for the lifetime of a run
	currencies *haxmap.Map[string, string]
}

func New(db *postgres.Client) *Ledger {
	return &Ledger{
		DB:         db,
		currencies: haxmap.New[string, string](),
	}
}

func (ledger *Ledger) table() string {
	return ledger.DB.QualifiedTable("valid_tickers")
}

// Available returns every ticker whose availability flag for the given
// (table, frequency) is not false. An unset flag counts as available so
// freshly loaded tickers are scheduled before their first extraction
// attempt. Ordering is left to the batch selector.
func (ledger *Ledger) Available(ctx context.Context, table data.Table, freq data.Frequency) ([]string, error) {
	column := pgx.Identifier{data.AvailabilityColumn(table, freq)}.Sanitize()

	var tickers []string
	sql := fmt.Sprintf(`SELECT ticker FROM %s
		WHERE validity IS NOT FALSE AND %s IS NOT FALSE`, ledger.table(), column)
	if err := pgxscan.Select(ctx, ledger.DB.Pool, &tickers, sql); err != nil {
		return nil, err
	}

	return tickers, nil
}

// MarkUnavailable flips the availability flag for (table, frequency) to
// false for exactly the given tickers in one batched update.
func (ledger *Ledger) MarkUnavailable(ctx context.Context, table data.Table, freq data.Frequency, tickers []string) error {
	if len(tickers) == 0 {
		return nil
	}

	column := pgx.Identifier{data.AvailabilityColumn(table, freq)}.Sanitize()
	sql := fmt.Sprintf(`UPDATE %s SET %s = false WHERE ticker = ANY($1)`, ledger.table(), column)

	if _, err := ledger.DB.Pool.Exec(ctx, sql, tickers); err != nil {
		return err
	}

	log.Info().Str("Table", table.String()).Str("Frequency", freq.String()).
		Int("NumTickers", len(tickers)).Msg("marked tickers unavailable")
	return nil
}

// CurrencyCode looks up the recorded currency for a ticker, returning an
// empty string when none is recorded. Callers substitute
// data.CurrencyUnavailable.
func (ledger *Ledger) CurrencyCode(ctx context.Context, ticker string) (string, error) {
	if code, ok := ledger.currencies.Get(ticker); ok {
		return code, nil
	}

	var code *string
	sql := fmt.Sprintf("SELECT currency_code FROM %s WHERE ticker = $1", ledger.table())
	err := ledger.DB.Pool.QueryRow(ctx, sql, ticker).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if code == nil {
		return "", nil
	}

	ledger.currencies.Set(ticker, *code)
	return *code, nil
}

// ValidTickers returns the full ledger rows still marked valid, used by
// the CSV export.
func (ledger *Ledger) ValidTickers(ctx context.Context) ([]*data.ValidTicker, error) {
	var tickers []*data.ValidTicker
	sql := fmt.Sprintf(`SELECT ticker, currency_code, market_cap, total_revenue,
		free_cash_flow, total_assets, validity
		FROM %s WHERE validity IS NOT FALSE ORDER BY ticker`, ledger.table())
	if err := pgxscan.Select(ctx, ledger.DB.Pool, &tickers, sql); err != nil {
		return nil, err
	}

	return tickers, nil
}
