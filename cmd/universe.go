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
package cmd

import (
	"context"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stock-ledger/sldata/data"
	"github.com/stock-ledger/sldata/postgres"
)

// universeCmd loads tickers into the valid_tickers ledger from a CSV
// file. Existing tickers are left untouched so their availability and
// validity flags survive a reload.
var universeCmd = &cobra.Command{
	Use:   "universe <tickers.csv>",
	Short: "Load the ticker universe from a CSV file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not open universe file")
		}
		defer fh.Close()

		tickers := []*data.ValidTicker{}
		if err := gocsv.UnmarshalFile(fh, &tickers); err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not parse universe file")
		}

		if len(tickers) == 0 {
			log.Warn().Str("FileName", args[0]).Msg("universe file contains no tickers")
			return
		}

		cfg, err := postgres.ConfigFromEnv(viper.GetString("PROVIDER"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not assemble database configuration")
		}

		client, err := postgres.Open(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer client.Close()

		rows := make([]data.Row, 0, len(tickers))
		for _, ticker := range tickers {
			rows = append(rows, data.Row{
				"ticker":        ticker.Ticker,
				"currency_code": ticker.CurrencyCode,
				"market_cap":    ticker.MarketCap,
			})
		}

		// insert-only; a conflicting ticker keeps its existing flags
		if err := client.Upsert(ctx, "valid_tickers", rows, []string{"ticker"}, nil); err != nil {
			log.Fatal().Err(err).Msg("could not load ticker universe")
		}

		log.Info().Int("NumTickers", len(tickers)).Msg("ticker universe loaded")
	},
}

func init() {
	rootCmd.AddCommand(universeCmd)
}
