// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sandbox

import "syscall"

// sysProcAttr places the child in a new process group and, when a chroot
// dir is set, has the kernel detach mount and network namespaces and chroot
// between fork and exec. No code of ours runs in that window, so there is
// nothing to keep async-signal-safe.
//
// TODO: CLONE_NEWUSER breaks the Swift toolchain, figure out why before
// enabling it.
// TODO: CLONE_NEWPID needs an init inside the jail to reap the build's
// subprocesses.
func sysProcAttr(chrootDir string) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid: true,
	}
	if chrootDir != "" {
		attr.Unshareflags = syscall.CLONE_NEWNS | syscall.CLONE_NEWNET
		attr.Chroot = chrootDir
	}
	return attr
}
