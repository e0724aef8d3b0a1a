// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sylabs/runner/internal/app/runner"
	"github.com/sylabs/runner/internal/pkg/reaper"
)

// version is injected at build time via -ldflags.
var version = "unknown"

var (
	addr           string
	maxBodySize    string
	defaultTimeout time.Duration
)

func main() {
	cmd := &cobra.Command{
		Use:           "runner",
		Short:         "HTTP-fronted code execution sandbox",
		Args:          cobra.NoArgs,
		Version:       version,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0:8000", "listen address")
	cmd.Flags().StringVar(&maxBodySize, "max-body-size", "10MiB", "request body size limit")
	cmd.Flags().DurationVar(&defaultTimeout, "default-timeout", 30*time.Second, "run timeout when the payload has none")

	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	if lvl := os.Getenv("RUNNER_LOG"); lvl != "" {
		parsed, err := logrus.ParseLevel(lvl)
		if err != nil {
			return errors.Wrap(err, "parse RUNNER_LOG")
		}
		logrus.SetLevel(parsed)
	}

	logrus.Infof("Runner version %s", version)

	// As a container's init process we first fork the actual service, then
	// spend the rest of our life reaping zombies and forwarding signals.
	if reaper.IsInit() {
		logrus.Info("We're the init process, forking and calling Ashy Slashy to take care of 'em zombies")
		return reaper.Run()
	}

	maxBody, err := units.RAMInBytes(maxBodySize)
	if err != nil {
		return errors.Wrap(err, "parse max body size")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Info("Starting runner service")
	srv := runner.New(runner.Config{
		Addr:           addr,
		MaxBodySize:    maxBody,
		DefaultTimeout: defaultTimeout,
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logrus.Info("Service stopped")
	return nil
}
