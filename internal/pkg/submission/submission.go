// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package submission writes submitted sources into a jail at the locations
// the build recipes expect.
package submission

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sylabs/runner/internal/pkg/lang"
)

// AssertsFile is the fixture filename the checkers read.
const AssertsFile = "asserts.json"

// Files holds the byte content of a submission. Checker and Asserts are
// optional, nil means not supplied.
type Files struct {
	Solution []byte
	Checker  []byte
	Asserts  []byte
}

// Dir composes the directory that receives the submission: the host working
// directory re-rooted under the chroot, plus the per-language source subdir.
// The composition relies on the jail's lower layer being the host root, so
// hostCwd must be absolute.
func Dir(chrootDir, hostCwd string, l lang.Layout) (string, error) {
	if !filepath.IsAbs(hostCwd) {
		return "", errors.Errorf("host cwd %q is not absolute", hostCwd)
	}
	return filepath.Join(chrootDir, strings.TrimPrefix(hostCwd, "/"), l.SrcDir), nil
}

// Write materializes the submission inside the jail. The solution is always
// written; the checker only when the layout names a checker file and checker
// source was supplied; the asserts fixture verbatim when present.
func Write(chrootDir, hostCwd string, l lang.Layout, f Files) error {
	dir, err := Dir(chrootDir, hostCwd, l)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, l.SolutionFile), f.Solution, 0o644); err != nil {
		return errors.Wrap(err, "write solution file")
	}

	if l.CheckerFile != "" && f.Checker != nil {
		if err := os.WriteFile(filepath.Join(dir, l.CheckerFile), f.Checker, 0o644); err != nil {
			return errors.Wrap(err, "write checker file")
		}
	}

	if f.Asserts != nil {
		if err := os.WriteFile(filepath.Join(dir, AssertsFile), f.Asserts, 0o644); err != nil {
			return errors.Wrap(err, "write asserts file")
		}
	}

	return nil
}
