// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xandr001/josh/internal/proxyserver"
)

func httpdCmd(g *globalFlags) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "start the josh-proxy HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.maintenance {
				return runMaintenance(g)
			}
			return runHTTPD(g, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	return cmd
}

func runHTTPD(g *globalFlags, configPath string) error {
	cfg, err := proxyserver.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if g.remote != "" {
		cfg.RemoteBase = g.remote
	}
	if g.local != "" {
		cfg.GitDir = g.local
	}
	if g.port != 0 {
		cfg.Listen = fmt.Sprintf("127.0.0.1:%d", g.port)
	}
	if g.concurrency > 0 {
		cfg.FilterPermits = int64(g.concurrency)
	}
	if cfg.GitDir == "" {
		return fmt.Errorf("--local is required")
	}

	if g.gc {
		if err := gitGC(cfg.GitDir); err != nil {
			logrus.Errorf("pre-start git gc failed: %v", err)
		}
	}

	srv, err := proxyserver.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("construct server: %w", err)
	}

	c := newCloser()
	go c.listenSignal(context.Background(), srv)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	<-c.ch
	logrus.Infof("josh-proxy exited")
	return nil
}
