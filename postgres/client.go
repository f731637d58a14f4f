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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/stock-ledger/sldata/data"
)

var (
	ErrConfig = errors.New("missing required connection parameter")
	ErrSchema = errors.New("cannot resolve destination table")
	ErrCommit = errors.New("upsert transaction failed")
)

// Client wraps a pgx connection pool scoped to one schema. All statement
// tables and the valid_tickers ledger live in the same schema.
type Client struct {
	Pool   *pgxpool.Pool
	Schema string
}

// Open creates a connection pool for the given configuration.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	pool, err := pgxpool.New(ctx, cfg.URL())
	if err != nil {
		return nil, err
	}

	return &Client{Pool: pool, Schema: cfg.Schema}, nil
}

func (client *Client) Close() {
	client.Pool.Close()
}

// QualifiedTable returns the schema-qualified table name. Table names
// reaching this point come from the data.Table enumeration or the
// migration-managed ledger, never from user input.
func (client *Client) QualifiedTable(table string) string {
	return fmt.Sprintf("%s.%s", client.Schema, table)
}

// TableColumns introspects information_schema for the ordered column set
// of a destination table. An unknown table returns ErrSchema.
func (client *Client) TableColumns(ctx context.Context, table string) ([]string, error) {
	var columns []string
	err := pgxscan.Select(ctx, client.Pool, &columns,
		`SELECT column_name FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, client.Schema, table)
	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrSchema, client.Schema, table)
	}

	return columns, nil
}

type tickerWatermark struct {
	Ticker    string    `db:"ticker"`
	Watermark time.Time `db:"watermark"`
}

// Watermarks returns each ticker's most recent insert_date in a
// statement table for one reporting frequency. Tickers with no rows for
// the frequency do not appear in the map.
func (client *Client) Watermarks(ctx context.Context, table string, frequency string) (map[string]time.Time, error) {
	sql := fmt.Sprintf(`SELECT ticker, max(insert_date) AS watermark
		FROM %s WHERE frequency = $1 GROUP BY ticker`, client.QualifiedTable(table))

	var marks []tickerWatermark
	if err := pgxscan.Select(ctx, client.Pool, &marks, sql, frequency); err != nil {
		return nil, err
	}

	watermarks := make(map[string]time.Time, len(marks))
	for _, mark := range marks {
		watermarks[mark.Ticker] = mark.Watermark
	}

	return watermarks, nil
}

// Upsert writes a homogeneous batch of rows in a single transaction.
// Rows whose conflictKeys already exist get only the updateColumns
// refreshed from the incoming values; with no updateColumns the conflict
// is ignored (insert-only). An empty batch is a no-op.
func (client *Client) Upsert(ctx context.Context, table string, rows []data.Row, conflictKeys []string, updateColumns []string) error {
	if len(rows) == 0 {
		return nil
	}

	columns := rows[0].Columns()
	sql := buildUpsert(client.QualifiedTable(table), columns, len(rows), conflictKeys, updateColumns)

	args := make([]any, 0, len(rows)*len(columns))
	for _, row := range rows {
		for _, col := range columns {
			args = append(args, row[col])
		}
	}

	err := pgx.BeginFunc(ctx, client.Pool, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, sql, args...)
		return execErr
	})
	if err != nil {
		log.Error().Err(err).Str("Table", table).Int("NumRows", len(rows)).Msg("upsert batch failed")
		return fmt.Errorf("%w: %s", ErrCommit, err)
	}

	return nil
}

// buildUpsert renders a multi-row INSERT ... ON CONFLICT statement.
// Arguments are numbered row-major in the given column order.
func buildUpsert(qualifiedTable string, columns []string, numRows int, conflictKeys []string, updateColumns []string) string {
	quoted := make([]string, len(columns))
	for idx, col := range columns {
		quoted[idx] = pgx.Identifier{col}.Sanitize()
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ", qualifiedTable, strings.Join(quoted, ", ")))

	placeholder := 1
	for row := 0; row < numRows; row++ {
		if row > 0 {
			builder.WriteString(", ")
		}
		builder.WriteByte('(')
		for col := range columns {
			if col > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("$%d", placeholder))
			placeholder++
		}
		builder.WriteByte(')')
	}

	keys := make([]string, len(conflictKeys))
	for idx, key := range conflictKeys {
		keys[idx] = pgx.Identifier{key}.Sanitize()
	}
	builder.WriteString(fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(keys, ", ")))

	if len(updateColumns) == 0 {
		builder.WriteString(" DO NOTHING")
		return builder.String()
	}

	builder.WriteString(" DO UPDATE SET ")
	for idx, col := range updateColumns {
		if idx > 0 {
			builder.WriteString(", ")
		}
		ident := pgx.Identifier{col}.Sanitize()
		builder.WriteString(fmt.Sprintf("%s = EXCLUDED.%s", ident, ident))
	}

	return builder.String()
}
