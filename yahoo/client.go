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
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/stock-ledger/sldata/data"
)

var (
	ErrStatus   = errors.New("provider returned an invalid HTTP response")
	ErrProvider = errors.New("provider error")
	ErrNoData   = errors.New("provider returned no statement data")
)

const defaultBaseURL = "https://query2.finance.yahoo.com"

// statementSource names the quoteSummary module for a (table, frequency)
// pair and the key of the statement list inside the module payload. This
// is the complete dispatch table; there is no reflective lookup.
type statementSource struct {
	Module  string
	ListKey string
}

type statementKey struct {
	Table     data.Table
	Frequency data.Frequency
}

var statementSources = map[statementKey]statementSource{
	{data.Cashflow, data.Annual}:        {"cashflowStatementHistory", "cashflowStatements"},
	{data.Cashflow, data.Quarterly}:     {"cashflowStatementHistoryQuarterly", "cashflowStatements"},
	{data.BalanceSheet, data.Annual}:    {"balanceSheetHistory", "balanceSheetStatements"},
	{data.BalanceSheet, data.Quarterly}: {"balanceSheetHistoryQuarterly", "balanceSheetStatements"},
	{data.IncomeStmt, data.Annual}:      {"incomeStatementHistory", "incomeStatementHistory"},
	{data.IncomeStmt, data.Quarterly}:   {"incomeStatementHistoryQuarterly", "incomeStatementHistory"},
	{data.Financials, data.Annual}:      {"incomeStatementHistory", "incomeStatementHistory"},
	{data.Financials, data.Quarterly}:   {"incomeStatementHistoryQuarterly", "incomeStatementHistory"},
}

// Statement is one fetched financial statement: reporting periods indexed
// by end date, line items keyed by the provider's camelCase names.
type Statement struct {
	Periods []Period
}

type Period struct {
	EndDate time.Time
	Items   map[string]float64
}

// Client fetches financial statements from the Yahoo quoteSummary API.
// Each fetch is an explicit request; nothing is cached between calls.
type Client struct {
	api     *resty.Client
	limiter *rate.Limiter
}

// NewClient builds a rate-limited API client. The request budget comes
// from the yahoo.rate_limit config key (requests per minute, default 60).
func NewClient() *Client {
	rateLimit := viper.GetInt("yahoo.rate_limit")
	if rateLimit <= 0 {
		rateLimit = 60
	}

	baseURL := viper.GetString("yahoo.base_url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	api := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; sldata)")
	api.JSONMarshal = json.Marshal
	api.JSONUnmarshal = json.Unmarshal

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

// FetchStatement requests the named statement for a ticker. Provider-side
// failures (HTTP errors, unknown symbols, API error payloads) come back
// as errors for the caller to classify; an empty statement comes back as
// zero periods.
func (client *Client) FetchStatement(ctx context.Context, ticker string, table data.Table, freq data.Frequency) (*Statement, error) {
	src, ok := statementSources[statementKey{table, freq}]
	if !ok {
		return nil, fmt.Errorf("%w: no statement source for %s %s", ErrProvider, table, freq)
	}

	if err := client.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := client.api.R().
		SetContext(ctx).
		SetQueryParam("modules", src.Module).
		Get("/v10/finance/quoteSummary/" + url.PathEscape(ticker))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d for %s", ErrStatus, resp.StatusCode(), ticker)
	}

	body := resp.Body()
	if apiErr := gjson.GetBytes(body, "quoteSummary.error.description"); apiErr.Exists() && apiErr.String() != "" {
		return nil, fmt.Errorf("%w: %s", ErrProvider, apiErr.String())
	}

	statement := &Statement{}
	list := gjson.GetBytes(body, "quoteSummary.result.0."+src.Module+"."+src.ListKey)
	list.ForEach(func(_, raw gjson.Result) bool {
		period := Period{Items: make(map[string]float64)}

		raw.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "endDate":
				period.EndDate = time.Unix(value.Get("raw").Int(), 0).UTC()
			case "maxAge":
				// metadata, not a line item
			default:
				if item := value.Get("raw"); item.Exists() {
					period.Items[key.String()] = item.Float()
				}
			}
			return true
		})

		if !period.EndDate.IsZero() {
			statement.Periods = append(statement.Periods, period)
		}
		return true
	})

	return statement, nil
}
