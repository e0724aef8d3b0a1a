// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package reaper adopts init's duties when the service runs as PID 1 of a
// container: it forks the actual service as a worker, reaps every zombie
// that reparents to PID 1, and forwards stop signals to the worker with a
// graceful-then-forceful escalation.
package reaper

import (
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// IsInit reports whether this process is the init process of a container.
func IsInit() bool {
	return os.Getpid() == 1
}

// Run re-executes the service as a worker child and then loops on
// SIGCHLD/SIGINT/SIGTERM, reaping zombies until the worker itself exits.
// On success it never returns: the process exits with the worker's exit
// status, or 128 plus the signal number when the worker was signaled.
func Run() error {
	worker, err := spawnWorker()
	if err != nil {
		return errors.Wrap(err, "spawn worker")
	}

	sigs := make(chan os.Signal, 8)
	signal.Notify(sigs, unix.SIGCHLD, unix.SIGINT, unix.SIGTERM)

	for s := range sigs {
		if s == unix.SIGINT || s == unix.SIGTERM {
			logrus.Info("Caught signal, terminating worker")
			go escalate(worker.Pid, s == unix.SIGINT)
		}
		reapAll(worker.Pid)
	}
	return errors.New("signal stream exhausted")
}

// spawnWorker starts a fresh copy of this binary with the same arguments,
// environment and stdio. Not being PID 1, the copy takes the normal service
// path.
func spawnWorker() (*os.Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "resolve own binary")
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Process, nil
}

// reapAll collects every exited child without blocking. Signals coalesce,
// one SIGCHLD can stand for several dead children, so the wait loops until
// the kernel has nothing left for us. When the reaped child is the worker,
// its status becomes our exit code.
func reapAll(workerPid int) {
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.ECHILD:
			return
		case err != nil:
			logrus.WithError(err).Error("Could not wait for child process")
			os.Exit(1)
		case pid == 0:
			return
		}

		if pid == workerPid && (status.Exited() || status.Signaled()) {
			logrus.Info("Worker exited, shutting down")
			os.Exit(exitCode(status))
		}
		logrus.Debugf("Reaped zombie with pid %d. Groovy!", pid)
	}
}

// exitCode translates a wait status into the exit code the container
// runtime should observe: the plain status for normal exits, 128 plus the
// signal number for signal deaths.
func exitCode(status unix.WaitStatus) int {
	if status.Signaled() {
		return 128 + int(status.Signal())
	}
	return status.ExitStatus()
}

// escalate asks the worker to stop, waiting 2s between increasingly firm
// signals. SIGINT is only sent when that is what we caught ourselves.
func escalate(pid int, interrupt bool) {
	if interrupt {
		if err := unix.Kill(pid, unix.SIGINT); err != nil {
			logrus.WithError(err).Debugf("Sending SIGINT to worker %d", pid)
		}
		time.Sleep(2 * time.Second)
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		logrus.WithError(err).Debugf("Sending SIGTERM to worker %d", pid)
	}
	time.Sleep(2 * time.Second)

	logrus.Info("Worker does not respond, killing it")
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		logrus.WithError(err).Debugf("Sending SIGKILL to worker %d", pid)
	}
}
