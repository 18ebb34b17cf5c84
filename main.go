// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"clipscope/cmd"
	applog "clipscope/internal/log"
	"clipscope/pkg/build"
)

// main hands off to the cobra command tree. Development builds run without
// ldflags, so missing build information is only a warning.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info incomplete (%v), using development defaults", err)
	}

	if err := cmd.Execute(); err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}
