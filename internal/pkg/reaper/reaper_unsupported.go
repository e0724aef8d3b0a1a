// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

//go:build !linux

package reaper

import "github.com/pkg/errors"

// Only Linux containers run the service as PID 1.

func IsInit() bool { return false }

func Run() error {
	return errors.New("PID 1 reaping is only supported on Linux")
}
