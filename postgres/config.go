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
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config holds every parameter needed to reach one named database
// environment (e.g. LOCAL or NEON). It is built once at process start and
// passed by value; nothing below this layer reads the environment.
type Config struct {
	Provider string
	User     string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
	Schema   string
}

// ConfigFromEnv collects the connection parameters for the named provider
// from {PROVIDER}_POSTGRES_* environment variables (read through viper).
// A missing required parameter returns ErrConfig.
func ConfigFromEnv(provider string) (Config, error) {
	cfg := Config{
		Provider: provider,
		User:     viper.GetString(provider + "_POSTGRES_USER"),
		Password: viper.GetString(provider + "_POSTGRES_PASSWORD"),
		Host:     viper.GetString(provider + "_POSTGRES_HOST"),
		Port:     viper.GetString(provider + "_POSTGRES_PORT"),
		DBName:   viper.GetString(provider + "_POSTGRES_DB"),
		SSLMode:  viper.GetString(provider + "_SSL_MODE"),
		Schema:   viper.GetString("database.schema"),
	}

	if cfg.Schema == "" {
		cfg.Schema = "stocks"
	}

	required := []struct {
		suffix string
		value  string
	}{
		{"_POSTGRES_USER", cfg.User},
		{"_POSTGRES_PASSWORD", cfg.Password},
		{"_POSTGRES_HOST", cfg.Host},
		{"_POSTGRES_PORT", cfg.Port},
		{"_POSTGRES_DB", cfg.DBName},
	}
	for _, param := range required {
		if param.value == "" {
			return Config{}, fmt.Errorf("%w: %s%s", ErrConfig, provider, param.suffix)
		}
	}

	return cfg, nil
}

// URL renders the config as a postgres:// connection string.
func (cfg Config) URL() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.DBName)
	if cfg.SSLMode != "" {
		dsn += "?sslmode=" + cfg.SSLMode
	}
	return dsn
}
