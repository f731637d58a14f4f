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
package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stock-ledger/sldata/data"
)

var _ = Describe("Table", func() {
	DescribeTable("parsing table names",
		func(name string, expected data.Table) {
			tbl, err := data.ParseTable(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(tbl).To(Equal(expected))
		},
		Entry("cashflow", "cashflow", data.Cashflow),
		Entry("balance sheet", "balance_sheet", data.BalanceSheet),
		Entry("income statement", "income_stmt", data.IncomeStmt),
		Entry("financials", "financials", data.Financials),
	)

	It("rejects unknown table names", func() {
		_, err := data.ParseTable("dividends")
		Expect(err).To(MatchError(data.ErrUnknownTable))
	})
})

var _ = Describe("Frequency", func() {
	It("parses annual and quarterly", func() {
		freq, err := data.ParseFrequency("annual")
		Expect(err).NotTo(HaveOccurred())
		Expect(freq).To(Equal(data.Annual))

		freq, err = data.ParseFrequency("quarterly")
		Expect(err).NotTo(HaveOccurred())
		Expect(freq).To(Equal(data.Quarterly))
	})

	It("rejects unknown frequencies", func() {
		_, err := data.ParseFrequency("monthly")
		Expect(err).To(MatchError(data.ErrUnknownFrequency))
	})
})

var _ = Describe("AvailabilityColumn", func() {
	It("joins table and frequency with the available suffix", func() {
		Expect(data.AvailabilityColumn(data.Cashflow, data.Annual)).
			To(Equal("cashflow_annual_available"))
		Expect(data.AvailabilityColumn(data.BalanceSheet, data.Quarterly)).
			To(Equal("balance_sheet_quarterly_available"))
	})
})

var _ = Describe("Row", func() {
	It("returns columns in sorted order", func() {
		row := data.Row{"ticker": "AAPL", "net_income": 1.0, "currency_code": "USD"}
		Expect(row.Columns()).To(Equal([]string{"currency_code", "net_income", "ticker"}))
	})

	It("returns no columns for an empty row", func() {
		Expect(data.Row{}.Columns()).To(BeEmpty())
	})
})
