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
package refresh_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stock-ledger/sldata/data"
	"github.com/stock-ledger/sldata/refresh"
)

var errExtract = errors.New("extraction failed")

type upsertCall struct {
	Table         string
	Rows          []data.Row
	ConflictKeys  []string
	UpdateColumns []string
}

type fakeStore struct {
	columns    []string
	columnsErr error
	upsertErr  error
	upserts    []upsertCall
}

func (store *fakeStore) TableColumns(_ context.Context, _ string) ([]string, error) {
	return store.columns, store.columnsErr
}

func (store *fakeStore) Upsert(_ context.Context, table string, rows []data.Row, conflictKeys, updateColumns []string) error {
	store.upserts = append(store.upserts, upsertCall{table, rows, conflictKeys, updateColumns})
	return store.upsertErr
}

type fakeLedger struct {
	marked []string
	err    error
}

func (ledger *fakeLedger) MarkUnavailable(_ context.Context, _ data.Table, _ data.Frequency, tickers []string) error {
	ledger.marked = append(ledger.marked, tickers...)
	return ledger.err
}

// fakeExtractor fails every ticker listed in failing and returns two
// rows for everything else
type fakeExtractor struct {
	failing map[string]bool
}

func (extractor *fakeExtractor) Extract(_ context.Context, ticker string, _ data.Table, freq data.Frequency, _ []string) ([]data.Row, error) {
	if extractor.failing[ticker] {
		return nil, fmt.Errorf("%w: %s", errExtract, ticker)
	}
	return []data.Row{
		{"ticker": ticker, "report_date": "2023-12-31", "frequency": freq.String()},
		{"ticker": ticker, "report_date": "2022-12-31", "frequency": freq.String()},
	}, nil
}

type fakeSelector struct {
	batch []string
	err   error
}

func (selector *fakeSelector) SelectBatch(_ context.Context, _ data.Table, _ data.Frequency, batchSize int) ([]string, error) {
	if len(selector.batch) > batchSize {
		return selector.batch[:batchSize], selector.err
	}
	return selector.batch, selector.err
}

var _ = Describe("Scheduler", func() {
	var (
		store     *fakeStore
		ledger    *fakeLedger
		extractor *fakeExtractor
		selector  *fakeSelector
		scheduler *refresh.Scheduler
	)

	BeforeEach(func() {
		store = &fakeStore{columns: []string{"ticker", "report_date", "frequency"}}
		ledger = &fakeLedger{}
		extractor = &fakeExtractor{failing: map[string]bool{}}
		selector = &fakeSelector{batch: []string{"AAPL", "MSFT", "GOOG"}}
		scheduler = &refresh.Scheduler{
			Store:     store,
			Ledger:    ledger,
			Extractor: extractor,
			Selector:  selector,
			BatchSize: 10,
		}
	})

	It("commits every extracted row in a single upsert", func() {
		summary, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).NotTo(HaveOccurred())

		Expect(store.upserts).To(HaveLen(1))
		Expect(store.upserts[0].Table).To(Equal("cashflow"))
		Expect(store.upserts[0].Rows).To(HaveLen(6))
		Expect(store.upserts[0].ConflictKeys).To(Equal([]string{"ticker", "report_date", "frequency"}))
		Expect(store.upserts[0].UpdateColumns).To(Equal([]string{"insert_date"}))

		Expect(summary.Selected).To(Equal(3))
		Expect(summary.Succeeded).To(Equal(3))
		Expect(summary.Unavailable).To(Equal(0))
		Expect(summary.RowsCommitted).To(Equal(6))
		Expect(ledger.marked).To(BeEmpty())
	})

	It("marks failed tickers unavailable and commits the rest", func() {
		extractor.failing["MSFT"] = true

		summary, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).NotTo(HaveOccurred())

		Expect(ledger.marked).To(Equal([]string{"MSFT"}))
		Expect(summary.Succeeded).To(Equal(2))
		Expect(summary.Unavailable).To(Equal(1))
		Expect(summary.RowsCommitted).To(Equal(4))
	})

	It("still runs the commit when every ticker fails", func() {
		for _, ticker := range selector.batch {
			extractor.failing[ticker] = true
		}

		summary, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).NotTo(HaveOccurred())

		Expect(ledger.marked).To(ConsistOf("AAPL", "MSFT", "GOOG"))
		Expect(summary.Succeeded).To(Equal(0))
		Expect(summary.RowsCommitted).To(Equal(0))
		Expect(store.upserts).To(HaveLen(1))
		Expect(store.upserts[0].Rows).To(BeEmpty())
	})

	It("bounds the run to the configured batch size", func() {
		scheduler.BatchSize = 2

		summary, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Selected).To(Equal(2))
		Expect(summary.RowsCommitted).To(Equal(4))
	})

	It("aborts when the destination schema cannot be read", func() {
		store.columnsErr = errors.New("relation does not exist")

		_, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).To(HaveOccurred())
		Expect(store.upserts).To(BeEmpty())
	})

	It("surfaces a commit failure", func() {
		store.upsertErr = errors.New("deadlock detected")

		summary, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).To(HaveOccurred())
		Expect(summary.RowsCommitted).To(Equal(0))
	})

	It("surfaces a ledger failure before committing", func() {
		extractor.failing["MSFT"] = true
		ledger.err = errors.New("connection reset")

		_, err := scheduler.Run(context.Background(), data.Cashflow, data.Annual)
		Expect(err).To(HaveOccurred())
		Expect(store.upserts).To(BeEmpty())
	})
})
