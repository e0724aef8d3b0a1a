// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

//go:build !linux

package jail

// Overlayfs, proc and device nodes need a Linux kernel. On other systems the
// jail is only the bare scratch tree and provides no isolation, which is
// good enough for development but must not be served to untrusted code.

func (j *Jail) mount() error { return nil }

func (j *Jail) unmount() {}
