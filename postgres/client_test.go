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
package postgres

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("QualifiedTable", func() {
	It("prefixes the table with the schema", func() {
		client := &Client{Schema: "stocks"}
		Expect(client.QualifiedTable("cashflow")).To(Equal("stocks.cashflow"))
	})
})

var _ = Describe("buildUpsert", func() {
	It("numbers placeholders row-major across rows", func() {
		sql := buildUpsert(`"stocks"."cashflow"`,
			[]string{"ticker", "report_date"}, 2,
			[]string{"ticker", "report_date"}, []string{"insert_date"})
		Expect(sql).To(Equal(`INSERT INTO "stocks"."cashflow" ("ticker", "report_date") ` +
			`VALUES ($1, $2), ($3, $4) ` +
			`ON CONFLICT ("ticker", "report_date") ` +
			`DO UPDATE SET "insert_date" = EXCLUDED."insert_date"`))
	})

	It("emits DO NOTHING when there are no update columns", func() {
		sql := buildUpsert(`"stocks"."valid_tickers"`,
			[]string{"ticker"}, 1, []string{"ticker"}, nil)
		Expect(sql).To(HaveSuffix(`ON CONFLICT ("ticker") DO NOTHING`))
	})

	It("updates every named column from the excluded row", func() {
		sql := buildUpsert(`"stocks"."cashflow"`,
			[]string{"ticker", "net_income", "insert_date"}, 1,
			[]string{"ticker"}, []string{"net_income", "insert_date"})
		Expect(sql).To(HaveSuffix(
			`DO UPDATE SET "net_income" = EXCLUDED."net_income", "insert_date" = EXCLUDED."insert_date"`))
	})
})
