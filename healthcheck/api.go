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

// Package healthcheck pings healthchecks.io after each refresh run so an
// external monitor notices stalled schedules. Pings are slug-based: the
// check for a run is derived from the table and frequency being
// refreshed.
package healthcheck

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
)

var ErrStatus = errors.New("status code is invalid")

// Configured reports whether a healthchecks.io ping key is set. Pings
// are skipped when monitoring is not configured.
func Configured() bool {
	return viper.GetString("healthchecks.ping_key") != ""
}

// CheckSlug derives the healthchecks.io slug for a (table, frequency)
// refresh schedule, e.g. "sldata-cashflow-annual".
func CheckSlug(table, frequency string) string {
	return slug.Make(fmt.Sprintf("sldata %s %s", table, frequency))
}

// Ping signals a successful run for the given check slug.
func Ping(checkSlug string) error {
	return ping(checkSlug, "")
}

// Fail signals a failed run for the given check slug.
func Fail(checkSlug string) error {
	return ping(checkSlug, "/fail")
}

func ping(checkSlug string, suffix string) error {
	pingKey := viper.GetString("healthchecks.ping_key")

	client := resty.New()
	resp, err := client.R().
		SetQueryParam("create", "1").
		Get(fmt.Sprintf("https://hc-ping.com/%s/%s%s", pingKey, checkSlug, suffix))
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
