// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xandr001/josh/internal/objstore"
)

func maintenanceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "run repository maintenance (gc, stale namespace cleanup) and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintenance(g)
		},
	}
}

// runMaintenance implements "-m": a one-shot housekeeping pass over the
// shared bare repository rather than starting the server. It shells out
// to git for gc (josh never reimplements pack compaction) and clears any
// refs/namespaces left behind by a process that crashed mid-request,
// which Release would otherwise have torn down.
func runMaintenance(g *globalFlags) error {
	if g.local == "" {
		return fmt.Errorf("--local is required")
	}
	store, err := objstore.Open(g.local)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer store.Close()

	if err := store.DeleteRefsByPrefix("refs/namespaces"); err != nil {
		logrus.Errorf("clean stale namespaces: %v", err)
	}

	if err := gitGC(g.local); err != nil {
		return fmt.Errorf("git gc: %w", err)
	}
	logrus.Infof("maintenance complete on %s", g.local)
	return nil
}

func gitGC(gitDir string) error {
	cmd := exec.Command("git", "--git-dir", gitDir, "gc", "--quiet")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}
