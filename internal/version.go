// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package internal holds values shared by the packages of this module.
package internal

import (
	"runtime"
	"strings"
	"unicode"
)

// Version is the current tagged release of the library.
const Version = "0.3.0"

// GoVersion returns the Go runtime version in semver form, suitable for
// the x-goog-api-client header. The returned string has no whitespace.
func GoVersion() string {
	return goVersion
}

var goVersion = goVer(runtime.Version())

func goVer(s string) string {
	if rest, ok := strings.CutPrefix(s, "devel +"); ok {
		if p := strings.IndexFunc(rest, unicode.IsSpace); p >= 0 {
			rest = rest[:p]
		}
		return rest
	}
	rest, ok := strings.CutPrefix(s, "go")
	if !ok || !strings.HasPrefix(rest, "1") {
		return ""
	}
	var prerelease string
	if p := strings.IndexFunc(rest, func(r rune) bool {
		return !strings.ContainsRune("0123456789.", r)
	}); p >= 0 {
		rest, prerelease = rest[:p], rest[p:]
	}
	switch {
	case strings.HasSuffix(rest, "."):
		rest += "0"
	case strings.Count(rest, ".") < 2:
		rest += ".0"
	}
	if prerelease != "" {
		rest += "-" + prerelease
	}
	return rest
}
