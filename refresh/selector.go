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
package refresh

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stock-ledger/sldata/data"
)

// WatermarkSource reports each ticker's most recent insert_date in a
// destination table; tickers with no rows are absent from the map.
type WatermarkSource interface {
	Watermarks(ctx context.Context, table string, frequency string) (map[string]time.Time, error)
}

// AvailabilitySource lists the tickers whose last extraction attempt for
// a (table, frequency) pair did not fail.
type AvailabilitySource interface {
	Available(ctx context.Context, table data.Table, freq data.Frequency) ([]string, error)
}

// BatchSelector picks the next bounded set of tickers to refresh for one
// (table, frequency) pair. Tickers are ordered by their watermark:
// never-refreshed tickers sort first, then the stalest watermark, with
// the ticker symbol breaking ties so batches are reproducible.
type BatchSelector struct {
	Store  WatermarkSource
	Ledger AvailabilitySource
}

// SelectBatch returns up to batchSize tickers due for refresh. When no
// ticker carries availability for the pair (a fresh or mis-populated
// availability column) it falls back to pure watermark ordering over the
// tickers already present in the destination table so the pipeline
// cannot wedge into selecting nothing.
func (selector *BatchSelector) SelectBatch(ctx context.Context, table data.Table, freq data.Frequency, batchSize int) ([]string, error) {
	candidates, err := selector.Ledger.Available(ctx, table, freq)
	if err != nil {
		return nil, err
	}

	watermarks, err := selector.Store.Watermarks(ctx, table.String(), freq.String())
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.Warn().Str("Table", table.String()).Str("Frequency", freq.String()).
			Msg("no tickers carry availability, falling back to watermark ordering")
		candidates = make([]string, 0, len(watermarks))
		for ticker := range watermarks {
			candidates = append(candidates, ticker)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		markA, okA := watermarks[a]
		markB, okB := watermarks[b]
		switch {
		case okA != okB:
			// never-refreshed before any watermark
			return !okA
		case !markA.Equal(markB):
			return markA.Before(markB)
		}
		return a < b
	})

	if len(candidates) > batchSize {
		candidates = candidates[:batchSize]
	}

	return candidates, nil
}
