// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sandbox spawns the build and test pipeline inside a jail and
// supervises it: concurrent stdout/stderr draining, a wall-clock timeout
// and process-group kill.
package sandbox

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// ErrTimeout is returned when the child does not finish within the
// configured wall-clock timeout. The whole process group has been sent
// SIGKILL by the time Run returns it.
var ErrTimeout = errors.New("timelimit exceeded")

// Config describes one sandboxed run.
type Config struct {
	// ChrootDir is the jail root the child is chrooted into, with mount
	// and network namespaces detached. Empty disables isolation entirely,
	// which is only acceptable for tests and development.
	ChrootDir string
	// Dir is the child working directory. With a chroot it is resolved
	// after the chroot, through the overlay lower layer.
	Dir string
	// Timeout is the wall-clock limit for the whole pipeline.
	Timeout time.Duration
}

// Result carries the captured outcome of a completed child.
type Result struct {
	// ExitCode is nil when the child was killed by a signal.
	ExitCode *int
	Stdout   string
	Stderr   string
}

// Run executes `make --silent test` under the given config and waits for
// completion, timeout or context cancellation. The child runs in its own
// process group so compilers forking subprocesses can be killed as one
// unit. Its stdin is the null device; stdout and stderr are drained
// concurrently with the wait so a chatty child can never deadlock against
// a full pipe.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cmd := exec.Command("make", "--silent", "test")
	cmd.Dir = cfg.Dir
	cmd.SysProcAttr = sysProcAttr(cfg.ChrootDir)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return Result{}, errors.Wrap(err, "create stdout pipe")
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return Result{}, errors.Wrap(err, "create stderr pipe")
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return Result{}, errors.Wrap(err, "start child")
	}
	// The child owns its copies of the write ends now. Closing ours lets
	// the drainers see EOF once the whole process group is gone.
	stdoutW.Close()
	stderrW.Close()

	var stdout, stderr []byte
	drainers := new(errgroup.Group)
	drainers.Go(func() error {
		defer stdoutR.Close()
		var err error
		stdout, err = io.ReadAll(stdoutR)
		return err
	})
	drainers.Go(func() error {
		defer stderrR.Close()
		var err error
		stderr, err = io.ReadAll(stderrR)
		return err
	})

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-time.After(cfg.Timeout):
		killGroup(cmd.Process.Pid)
		return Result{}, ErrTimeout
	case <-ctx.Done():
		killGroup(cmd.Process.Pid)
		return Result{}, ctx.Err()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{}, errors.Wrap(waitErr, "wait for child")
		}
	}

	if err := drainers.Wait(); err != nil {
		return Result{}, errors.Wrap(err, "drain child output")
	}

	res := Result{
		Stdout: string(stdout),
		Stderr: string(stderr),
	}
	// ExitCode is -1 for a signal death, leaving res.ExitCode nil.
	if code := cmd.ProcessState.ExitCode(); code >= 0 {
		res.ExitCode = &code
	}
	return res, nil
}

// killGroup SIGKILLs the whole process group rooted at pid.
func killGroup(pid int) {
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		logrus.WithError(err).Errorf("Cannot kill process group %d", pid)
	}
}
