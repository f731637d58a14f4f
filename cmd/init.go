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
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stock-ledger/sldata/db"
	"github.com/stock-ledger/sldata/postgres"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the stocks schema and write a starter config file",
	Run: func(cmd *cobra.Command, args []string) {
		provider := viper.GetString("PROVIDER")
		confirmed := true

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Which database environment should be initialized? (connection parameters come from {PROVIDER}_POSTGRES_* environment variables)").
					Value(&provider),

				huh.NewConfirm().
					Title("Run schema migrations now?").
					Value(&confirmed),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		if !confirmed {
			log.Info().Msg("aborted, no changes made")
			return
		}

		cfg, err := postgres.ConfigFromEnv(provider)
		if err != nil {
			log.Fatal().Err(err).Str("Provider", provider).Msg("could not assemble database configuration")
		}

		log.Info().Msg("creating database tables")

		if err := db.Migrate(cfg.URL()); err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		// save the chosen provider to the config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".sldata.toml")
		configData, err := toml.Marshal(map[string]string{"provider": provider})
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		if err := os.WriteFile(configFN, configData, 0644); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Str("ConfigFile", configFN).Msg("Your statement library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
