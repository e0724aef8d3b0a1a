// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package require provides helpers that skip tests whose host requirements
// are not met.
package require

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

// Root skips the current test when not running as root.
func Root(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skipf("test requires root privileges")
	}
}

// Linux skips the current test on other kernels.
func Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skipf("test requires Linux")
	}
}

// Filesystem checks that the given filesystem is listed in
// /proc/filesystems, if not the current test is skipped with a message.
func Filesystem(t *testing.T, fs string) {
	Linux(t)

	f, err := os.Open("/proc/filesystems")
	if err != nil {
		t.Fatalf("error while checking filesystem presence: %s", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[len(fields)-1] == fs {
			return
		}
	}

	t.Skipf("%s filesystem seems not supported", fs)
}

// Command checks if the provided command is available on the PATH. If not
// found, the current test is skipped with a message.
func Command(t *testing.T, command string) {
	if _, err := exec.LookPath(command); err != nil {
		t.Skipf("%s command not found in $PATH", command)
	}
}
