// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

//go:build !linux

package sandbox

import "syscall"

// Namespaces and chroot need a Linux kernel. Elsewhere the child only gets
// its own process group, so development hosts run submissions unisolated.
func sysProcAttr(_ string) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
