// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package dirs

import (
	"os"
	"testing"
)

func MkdirOrFatal(t *testing.T, dir string, perm os.FileMode) {
	if err := os.Mkdir(dir, perm); err != nil {
		t.Fatalf("could not create %q: %s", dir, err)
	}
	if err := os.Chmod(dir, perm); err != nil {
		t.Fatalf("could not chmod %q to %o: %s", dir, perm, err)
	}
}

func MkdirAllOrFatal(t *testing.T, dir string, perm os.FileMode) {
	if err := os.MkdirAll(dir, perm); err != nil {
		t.Fatalf("could not create %q: %s", dir, err)
	}
}
