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

// Package pkginfo exposes build metadata for the version command.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog/log"
)

// Set through -ldflags at release build time. When left empty the VCS
// stamp embedded by the Go linker fills in commit and date.
var (
	Version    = "dev"
	CommitHash string
	BuildDate  string
)

// VersionString renders the full version report printed by
// `sldata version`.
func VersionString() string {
	commit, date := CommitHash, BuildDate
	if commit == "" || date == "" {
		vcsCommit, vcsDate := vcsStamp()
		if commit == "" {
			commit = vcsCommit
		}
		if date == "" {
			date = vcsDate
		}
	}

	return fmt.Sprintf(`sldata %s %s/%s

Build Date: %s
Commit: %s
Built with: %s`, Version, runtime.GOOS, runtime.GOARCH, date, commit, runtime.Version())
}

// Dependencies returns every module linked into the binary, sorted, one
// `path="version"` string per module.
func Dependencies() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return nil
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)
	return deps
}

func vcsStamp() (commit string, date string) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
		case "vcs.time":
			date = setting.Value
		}
	}

	return commit, date
}
