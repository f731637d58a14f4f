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

	"github.com/stock-ledger/sldata/ledger"
	"github.com/stock-ledger/sldata/postgres"
)

// exportCmd writes the valid_tickers ledger to a CSV file
var exportCmd = &cobra.Command{
	Use:   "export <tickers.csv>",
	Short: "Export the ticker ledger to a CSV file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := postgres.ConfigFromEnv(viper.GetString("PROVIDER"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not assemble database configuration")
		}

		client, err := postgres.Open(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer client.Close()

		tickers, err := ledger.New(client).ValidTickers(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read ticker ledger")
		}

		fh, err := os.Create(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not create export file")
		}
		defer fh.Close()

		if err := gocsv.MarshalFile(&tickers, fh); err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not write export file")
		}

		log.Info().Int("NumTickers", len(tickers)).Str("FileName", args[0]).Msg("ticker ledger exported")
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
