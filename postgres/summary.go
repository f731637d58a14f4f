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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stock-ledger/sldata/data"
)

// NumValidTickers returns the count of ledger entries still marked valid.
func (client *Client) NumValidTickers(ctx context.Context) (int, error) {
	count := 0
	sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE validity IS NOT FALSE", client.QualifiedTable("valid_tickers"))
	err := client.Pool.QueryRow(ctx, sql).Scan(&count)
	return count, err
}

// TableRecords returns the total row count of a statement table.
func (client *Client) TableRecords(ctx context.Context, table data.Table) (int, error) {
	count := 0
	sql := fmt.Sprintf("SELECT count(*) FROM %s", client.QualifiedTable(table.String()))
	err := client.Pool.QueryRow(ctx, sql).Scan(&count)
	return count, err
}

// LastRefreshed returns the most recent insert_date recorded in a
// statement table, or the zero time when the table is empty.
func (client *Client) LastRefreshed(ctx context.Context, table data.Table) (time.Time, error) {
	var lastRefreshed time.Time
	sql := fmt.Sprintf("SELECT coalesce(max(insert_date), '0001-01-01'::date) FROM %s", client.QualifiedTable(table.String()))
	err := client.Pool.QueryRow(ctx, sql).Scan(&lastRefreshed)
	return lastRefreshed, err
}

// Summary returns a markdown description of the statement library
func (client *Client) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString("# Statement Library\n\n")

	numTickers, err := client.NumValidTickers(ctx)
	if err != nil {
		return "", err
	}
	p.Fprintf(&builder, "Valid tickers: %d\n\n", numTickers)

	builder.WriteString("## Tables\n\n")

	for _, table := range data.Tables {
		numRecords, err := client.TableRecords(ctx, table)
		if err != nil {
			return "", err
		}

		lastRefreshed, err := client.LastRefreshed(ctx, table)
		if err != nil {
			return "", err
		}

		age := "never refreshed"
		if !lastRefreshed.Equal(time.Time{}) {
			age = timeago.English.Format(lastRefreshed)
		}

		p.Fprintf(&builder, "  * %s: %d rows (last refreshed %s)\n", table, numRecords, age)
	}

	return builder.String(), nil
}
