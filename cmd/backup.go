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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stock-ledger/sldata/backblaze"
	"github.com/stock-ledger/sldata/backup"
	"github.com/stock-ledger/sldata/postgres"
)

// backupCmd serializes each statement table to a parquet file and,
// when backblaze credentials are configured, uploads the files to the
// configured bucket.
var backupCmd = &cobra.Command{
	Use:   "backup [dir]",
	Short: "Backup statement tables to parquet files",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dir := "."
		if len(args) > 0 {
			dir = args[0]
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

		for _, table := range viper.GetStringSlice("backup.tables") {
			fn, err := backup.Table(ctx, client, table, dir)
			if err != nil {
				log.Fatal().Err(err).Str("Table", table).Msg("could not backup table")
			}

			log.Info().Str("Table", table).Str("FileName", fn).Msg("table backed up")

			if backblaze.Configured() {
				if err := backblaze.Upload(fn, viper.GetString("backblaze.bucket"), dir); err != nil {
					log.Error().Err(err).Str("FileName", fn).Msg("could not upload backup")
					continue
				}

				if err := os.Remove(fn); err != nil {
					log.Error().Err(err).Str("FileName", fn).Msg("could not remove local backup file")
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)

	viper.SetDefault("backup.tables", []string{
		"valid_tickers", "cashflow", "balance_sheet", "income_stmt", "financials",
	})
}
