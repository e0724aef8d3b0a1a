// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package jail

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// mount overlays the live host root onto merged/, with writes captured into
// upper/, then mounts a fresh proc and creates the device nodes the
// supported toolchains need. A failed step unwinds the mounts performed
// before it.
func (j *Jail) mount() (err error) {
	upper := filepath.Join(j.base, "upper")
	work := filepath.Join(j.base, "work")

	opts := fmt.Sprintf("lowerdir=/,upperdir=%s,workdir=%s", upper, work)
	if err = unix.Mount("overlay", j.merged, "overlay", 0, opts); err != nil {
		return errors.Wrapf(err, "mount overlay at %s", j.merged)
	}
	defer func() {
		if err != nil {
			if umountErr := unix.Unmount(j.merged, unix.MNT_DETACH); umountErr != nil {
				logrus.WithError(umountErr).Error("Unmounting overlay after failed jail setup")
			}
		}
	}()

	if err = unix.Mount("proc", filepath.Join(j.merged, "proc"), "proc", 0, ""); err != nil {
		return errors.Wrap(err, "mount proc")
	}
	defer func() {
		if err != nil {
			if umountErr := unix.Unmount(filepath.Join(j.merged, "proc"), unix.MNT_DETACH); umountErr != nil {
				logrus.WithError(umountErr).Error("Unmounting proc after failed jail setup")
			}
		}
	}()

	devices := []struct {
		path string
		dev  uint64
	}{
		// Go toolchain needs /dev/null
		{"dev/null", unix.Mkdev(1, 3)},
		// .NET runtime needs /dev/urandom
		{"dev/urandom", unix.Mkdev(1, 9)},
	}
	for _, d := range devices {
		if err = unix.Mknod(filepath.Join(j.merged, d.path), unix.S_IFCHR|0o666, int(d.dev)); err != nil {
			return errors.Wrapf(err, "mknod %s", d.path)
		}
	}

	return nil
}

// unmount detaches proc first, then the overlay itself. Failures are logged
// and swallowed so that the scratch tree removal still runs.
func (j *Jail) unmount() {
	if err := unix.Unmount(filepath.Join(j.merged, "proc"), unix.MNT_DETACH); err != nil {
		logrus.WithError(err).Errorf("Unmounting jail proc %s", filepath.Join(j.merged, "proc"))
	}
	if err := unix.Unmount(j.merged, unix.MNT_DETACH); err != nil {
		logrus.WithError(err).Errorf("Unmounting jail overlay %s", j.merged)
	}
}
