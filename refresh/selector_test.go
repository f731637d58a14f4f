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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stock-ledger/sldata/data"
	"github.com/stock-ledger/sldata/refresh"
)

type fakeWatermarks struct {
	watermarks map[string]time.Time
	err        error

	table     string
	frequency string
}

func (store *fakeWatermarks) Watermarks(_ context.Context, table string, frequency string) (map[string]time.Time, error) {
	store.table = table
	store.frequency = frequency
	return store.watermarks, store.err
}

type fakeAvailability struct {
	tickers []string
	err     error
}

func (ledger *fakeAvailability) Available(_ context.Context, _ data.Table, _ data.Frequency) ([]string, error) {
	return ledger.tickers, ledger.err
}

var _ = Describe("BatchSelector", func() {
	var (
		store     *fakeWatermarks
		available *fakeAvailability
		selector  *refresh.BatchSelector

		stale = time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
		fresh = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		store = &fakeWatermarks{watermarks: map[string]time.Time{}}
		available = &fakeAvailability{}
		selector = &refresh.BatchSelector{Store: store, Ledger: available}
	})

	It("orders never-refreshed tickers first, then stalest watermark", func() {
		available.tickers = []string{"GOOG", "AAPL", "MSFT"}
		store.watermarks = map[string]time.Time{
			"GOOG": fresh,
			"MSFT": stale,
		}

		batch, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch).To(Equal([]string{"AAPL", "MSFT", "GOOG"}))
	})

	It("breaks watermark ties on the ticker symbol", func() {
		available.tickers = []string{"MSFT", "IBM", "GOOG", "AAPL"}
		store.watermarks = map[string]time.Time{
			"MSFT": stale,
			"GOOG": stale,
		}

		batch, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch).To(Equal([]string{"AAPL", "IBM", "GOOG", "MSFT"}))
	})

	It("bounds the batch after ordering", func() {
		available.tickers = []string{"GOOG", "AAPL", "MSFT"}
		store.watermarks = map[string]time.Time{
			"GOOG": fresh,
			"MSFT": stale,
		}

		batch, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch).To(Equal([]string{"AAPL", "MSFT"}))
	})

	It("queries the watermarks of the requested table and frequency", func() {
		available.tickers = []string{"AAPL"}

		_, err := selector.SelectBatch(context.Background(), data.BalanceSheet, data.Quarterly, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.table).To(Equal("balance_sheet"))
		Expect(store.frequency).To(Equal("quarterly"))
	})

	Context("when no ticker carries availability", func() {
		It("falls back to watermark ordering over the destination table", func() {
			store.watermarks = map[string]time.Time{
				"GOOG": fresh,
				"MSFT": stale,
				"AAPL": stale,
			}

			batch, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(batch).To(Equal([]string{"AAPL", "MSFT", "GOOG"}))
		})

		It("selects nothing when the destination table is also empty", func() {
			batch, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(batch).To(BeEmpty())
		})
	})

	It("surfaces an availability lookup failure", func() {
		available.err = errors.New("connection reset")

		_, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
		Expect(err).To(HaveOccurred())
	})

	It("surfaces a watermark lookup failure", func() {
		available.tickers = []string{"AAPL"}
		store.err = errors.New("connection reset")

		_, err := selector.SelectBatch(context.Background(), data.Cashflow, data.Annual, 10)
		Expect(err).To(HaveOccurred())
	})
})
