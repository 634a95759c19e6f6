// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"

	"github.com/xandr001/josh/internal/hook"
)

// isHookReentry reports whether this process was invoked as git's
// post-receive "update" hook (a symlink to this same binary, per
// §4.8), rather than as the josh-proxy CLI proper.
func isHookReentry() bool {
	return filepath.Base(os.Args[0]) == "update"
}

// runHook dispatches to the hook-binary-side client and returns the
// process exit code the "update" hook should use.
func runHook() int {
	return hook.RunClient(os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
}
