// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
)

// main re-enters as the update-hook client when invoked via the
// "update" symlink git's post-receive hook creates (§4.8), otherwise
// runs the cobra-rooted CLI.
func main() {
	if isHookReentry() {
		os.Exit(runHook())
	}
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
