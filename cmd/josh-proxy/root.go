// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xandr001/josh/pkg/version"
)

// globalFlags mirrors the teacher's own Globals struct: a small set of
// process-wide options every subcommand shares.
type globalFlags struct {
	remote      string
	local       string
	port        int
	trace       string
	gc          bool
	maintenance bool
	concurrency int
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "josh-proxy",
		Short:         "virtual-repository history-filtering proxy",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.trace != "" {
				return enableTrace(g.trace)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.remote, "remote", "", "upstream git server base URL")
	root.PersistentFlags().StringVar(&g.local, "local", "", "local shared bare repository path")
	root.PersistentFlags().IntVar(&g.port, "port", 8000, "listen port")
	root.PersistentFlags().StringVar(&g.trace, "trace", "", "write a trace log to this path")
	root.PersistentFlags().BoolVar(&g.gc, "gc", false, "run git gc before starting")
	root.PersistentFlags().BoolVarP(&g.maintenance, "maintenance", "m", false, "run maintenance and exit")
	root.PersistentFlags().IntVarP(&g.concurrency, "concurrency", "n", 0, "override filter-permit concurrency")

	root.AddCommand(httpdCmd(g), maintenanceCmd(g), versionCmd())
	return root
}

func enableTrace(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logrus.SetOutput(f)
	logrus.SetLevel(logrus.DebugLevel)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version.String())
			return nil
		},
	}
}
