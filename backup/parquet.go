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

// Package backup writes per-table parquet snapshots of the statement
// library. Columns are discovered at run time and exported as optional
// UTF8 values so snapshots track schema changes without code changes.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/stock-ledger/sldata/postgres"
)

// Table snapshots one table into a parquet file under dir and returns
// the file name.
func Table(ctx context.Context, client *postgres.Client, table string, dir string) (string, error) {
	columns, err := client.TableColumns(ctx, table)
	if err != nil {
		return "", err
	}

	md := make([]string, len(columns))
	for idx, col := range columns {
		md[idx] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", col)
	}

	fn := filepath.Join(dir, fmt.Sprintf("%s-%s.parquet", table, time.Now().Format("20060102")))
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return "", err
	}
	defer fh.Close()

	pw, err := writer.NewCSVWriter(md, fh, 4)
	if err != nil {
		return "", err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	sql := fmt.Sprintf("SELECT * FROM %s", client.QualifiedTable(table))
	rows, err := client.Pool.Query(ctx, sql)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	numRecords := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", err
		}

		record := make([]*string, len(values))
		for idx, value := range values {
			record[idx] = formatValue(value)
		}

		if err := pw.WriteString(record); err != nil {
			log.Error().Err(err).Str("Table", table).Msg("parquet write failed for record")
		}
		numRecords++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return "", err
	}

	log.Info().Int("NumRecords", numRecords).Str("FileName", fn).Msg("parquet snapshot written")
	return fn, nil
}

func formatValue(value any) *string {
	if value == nil {
		return nil
	}

	var formatted string
	switch typed := value.(type) {
	case time.Time:
		formatted = typed.Format("2006-01-02")
	case string:
		formatted = typed
	default:
		formatted = fmt.Sprint(typed)
	}

	return &formatted
}
