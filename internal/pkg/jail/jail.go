// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package jail prepares per-request chroot jails by mounting the host root
// somewhere inside /tmp as an overlay. The child sees a full, writable
// looking root filesystem; its writes are captured into the upper layer and
// discarded with the jail.
package jail

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const tmpRoot = "/tmp"

// Jail owns an exclusive scratch tree under /tmp holding the overlay layers
// and the merged mount point used as the chroot directory.
type Jail struct {
	base   string
	merged string
	closed bool
}

// New creates a fresh scratch tree, populates it with the directories
// required for overlayfs and mounts the current root there as an overlay.
// Call Close to tear everything down.
func New() (*Jail, error) {
	base := filepath.Join(tmpRoot, uuid.New().String())
	if err := os.Mkdir(base, 0o777); err != nil {
		return nil, errors.Wrap(err, "create jail base dir")
	}

	j := &Jail{
		base:   base,
		merged: filepath.Join(base, "merged"),
	}

	for _, d := range []string{"upper", "work", "merged"} {
		if err := os.Mkdir(filepath.Join(base, d), 0o777); err != nil {
			os.RemoveAll(base)
			return nil, errors.Wrapf(err, "create jail %s dir", d)
		}
	}

	if err := j.mount(); err != nil {
		os.RemoveAll(base)
		return nil, err
	}

	return j, nil
}

// ChrootDir returns the merged overlay mount point prepared for chroot.
func (j *Jail) ChrootDir() string {
	return j.merged
}

// Close unmounts the jail and removes its scratch tree. Failures are logged
// and swallowed, cleanup is best effort. Close may be called more than once.
func (j *Jail) Close() {
	if j == nil || j.closed {
		return
	}
	j.closed = true

	j.unmount()
	if err := os.RemoveAll(j.base); err != nil {
		logrus.WithError(err).Errorf("Removing jail dir %s", j.base)
	}
}
