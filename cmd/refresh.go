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
	"time"

	"github.com/hako/durafmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stock-ledger/sldata/data"
	"github.com/stock-ledger/sldata/healthcheck"
	"github.com/stock-ledger/sldata/ledger"
	"github.com/stock-ledger/sldata/postgres"
	"github.com/stock-ledger/sldata/refresh"
	"github.com/stock-ledger/sldata/yahoo"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one incremental refresh batch for a statement table",
	Long: `The refresh sub-command executes a single bounded refresh run for one
(table, frequency) pair and exits. Scheduling repeated runs is left to an
external scheduler (cron, CI pipeline, etc.).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		table, err := data.ParseTable(viper.GetString("refresh.table"))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid --table")
		}

		freq, err := data.ParseFrequency(viper.GetString("refresh.frequency"))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid --frequency")
		}

		batchSize := viper.GetInt("refresh.batch_size")
		if batchSize <= 0 {
			log.Fatal().Int("BatchSize", batchSize).Msg("--batch-size must be a positive integer")
		}

		cfg, err := postgres.ConfigFromEnv(viper.GetString("PROVIDER"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not assemble database configuration")
		}

		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		validTickers := ledger.New(db)

		scheduler := &refresh.Scheduler{
			Store:  db,
			Ledger: validTickers,
			Extractor: &yahoo.Extractor{
				Client:     yahoo.NewClient(),
				Currencies: validTickers,
			},
			Selector:  &refresh.BatchSelector{Store: db, Ledger: validTickers},
			BatchSize: batchSize,
		}

		startTime := time.Now()
		summary, err := scheduler.Run(ctx, table, freq)

		if healthcheck.Configured() {
			checkSlug := healthcheck.CheckSlug(table.String(), freq.String())
			ping := healthcheck.Ping
			if err != nil {
				ping = healthcheck.Fail
			}
			if pingErr := ping(checkSlug); pingErr != nil {
				log.Warn().Err(pingErr).Str("CheckSlug", checkSlug).Msg("healthcheck ping failed")
			}
		}

		if err != nil {
			log.Fatal().Err(err).Str("Table", table.String()).Str("Frequency", freq.String()).
				Msg("refresh run failed")
		}

		runTime := time.Since(startTime)
		log.Info().Str("RunTime", durafmt.Parse(runTime).String()).
			Int("Selected", summary.Selected).Int("Succeeded", summary.Succeeded).
			Int("Unavailable", summary.Unavailable).Int("RowsCommitted", summary.RowsCommitted).
			Msg("refresh finished")
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().String("table", "", "statement table to refresh (cashflow, balance_sheet, income_stmt, financials)")
	refreshCmd.Flags().String("frequency", "annual", "reporting frequency (annual or quarterly)")
	refreshCmd.Flags().Int("batch-size", 100, "maximum number of tickers to refresh in this run")

	for flag, key := range map[string]string{
		"table":      "refresh.table",
		"frequency":  "refresh.frequency",
		"batch-size": "refresh.batch_size",
	} {
		if err := viper.BindPFlag(key, refreshCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}
