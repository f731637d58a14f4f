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
package pkginfo_test

import (
	"runtime"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stock-ledger/sldata/pkginfo"
)

var _ = Describe("VersionString", func() {
	It("includes the version, platform and Go release", func() {
		report := pkginfo.VersionString()
		Expect(report).To(ContainSubstring("sldata " + pkginfo.Version))
		Expect(report).To(ContainSubstring(runtime.GOOS + "/" + runtime.GOARCH))
		Expect(report).To(ContainSubstring(runtime.Version()))
	})
})

var _ = Describe("Dependencies", func() {
	It("lists linked modules in sorted path=version form", func() {
		deps := pkginfo.Dependencies()
		Expect(deps).NotTo(BeEmpty())
		Expect(sort.StringsAreSorted(deps)).To(BeTrue())
		Expect(deps[0]).To(MatchRegexp(`^.+=".+"$`))
	})
})
