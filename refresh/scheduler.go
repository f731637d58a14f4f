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

// Package refresh drives one incremental refresh run: select a bounded
// batch of tickers for a (table, frequency) pair, extract and normalize
// each ticker's statement, record failures in the validity ledger, and
// commit the surviving rows in a single upsert transaction.
package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stock-ledger/sldata/data"
)

// conflictKeys is the uniqueness contract of every statement table. On
// conflict only insert_date is refreshed: re-running a period already
// captured records "still current" without touching financial values.
var (
	conflictKeys  = []string{"ticker", "report_date", "frequency"}
	updateColumns = []string{"insert_date"}
)

type Store interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
	Upsert(ctx context.Context, table string, rows []data.Row, conflictKeys []string, updateColumns []string) error
}

type ValidityLedger interface {
	MarkUnavailable(ctx context.Context, table data.Table, freq data.Frequency, tickers []string) error
}

type Extractor interface {
	Extract(ctx context.Context, ticker string, table data.Table, freq data.Frequency, expectedColumns []string) ([]data.Row, error)
}

type Selector interface {
	SelectBatch(ctx context.Context, table data.Table, freq data.Frequency, batchSize int) ([]string, error)
}

// RunSummary reports what one scheduler run did.
type RunSummary struct {
	RunID     uuid.UUID
	Table     data.Table
	Frequency data.Frequency

	StartTime time.Time
	EndTime   time.Time

	Selected      int
	Succeeded     int
	Unavailable   int
	RowsCommitted int
}

// Scheduler owns one refresh run. A single instance is assumed to run
// per (table, frequency) at a time; coordinating concurrent schedulers
// is an external concern.
type Scheduler struct {
	Store     Store
	Ledger    ValidityLedger
	Extractor Extractor
	Selector  Selector

	BatchSize int
}

// Run executes one bounded refresh batch. Per-ticker extraction failures
// are recovered locally by marking the ticker unavailable; schema and
// commit failures abort the run and surface to the caller. No retry
// happens here.
func (scheduler *Scheduler) Run(ctx context.Context, table data.Table, freq data.Frequency) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New(),
		Table:     table,
		Frequency: freq,
		StartTime: time.Now(),
	}
	defer func() { summary.EndTime = time.Now() }()

	logger := log.With().Str("RunID", summary.RunID.String()[:8]).
		Str("Table", table.String()).Str("Frequency", freq.String()).Logger()

	expectedColumns, err := scheduler.Store.TableColumns(ctx, table.String())
	if err != nil {
		return summary, err
	}

	batch, err := scheduler.Selector.SelectBatch(ctx, table, freq, scheduler.BatchSize)
	if err != nil {
		return summary, err
	}
	summary.Selected = len(batch)
	logger.Info().Int("NumTickers", len(batch)).Msg("selected refresh batch")

	var (
		records     []data.Row
		unavailable []string
	)

	for _, ticker := range batch {
		rows, err := scheduler.Extractor.Extract(ctx, ticker, table, freq, expectedColumns)
		if err != nil {
			logger.Warn().Err(err).Str("Ticker", ticker).Msg("extraction failed, marking ticker unavailable")
			unavailable = append(unavailable, ticker)
			continue
		}

		summary.Succeeded++
		records = append(records, rows...)
	}

	summary.Unavailable = len(unavailable)
	if err := scheduler.Ledger.MarkUnavailable(ctx, table, freq, unavailable); err != nil {
		return summary, err
	}

	if err := scheduler.Store.Upsert(ctx, table.String(), records, conflictKeys, updateColumns); err != nil {
		return summary, err
	}
	summary.RowsCommitted = len(records)

	logger.Info().Int("Selected", summary.Selected).Int("Succeeded", summary.Succeeded).
		Int("Unavailable", summary.Unavailable).Int("RowsCommitted", summary.RowsCommitted).
		Msg("refresh run complete")

	return summary, nil
}
