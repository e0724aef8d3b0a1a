// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package jail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sylabs/runner/internal/pkg/test/tool/require"
)

func TestNew(t *testing.T) {
	require.Root(t)
	require.Filesystem(t, "overlay")

	j, err := New()
	if err != nil {
		t.Fatalf("could not create jail: %s", err)
	}
	defer j.Close()

	if !strings.HasPrefix(j.ChrootDir(), tmpRoot+"/") {
		t.Errorf("chroot dir %q not under %s", j.ChrootDir(), tmpRoot)
	}
	if filepath.Base(j.ChrootDir()) != "merged" {
		t.Errorf("chroot dir %q does not point at the merged tree", j.ChrootDir())
	}
	if _, err := uuid.Parse(filepath.Base(j.base)); err != nil {
		t.Errorf("jail base %q is not named by a UUID: %s", j.base, err)
	}

	for _, d := range []string{"upper", "work", "merged"} {
		fi, err := os.Stat(filepath.Join(j.base, d))
		if err != nil {
			t.Fatalf("missing jail dir %s: %s", d, err)
		}
		if !fi.IsDir() {
			t.Errorf("jail entry %s is not a directory", d)
		}
	}

	// The overlay lower layer is the live root, so the host /etc must be
	// visible through the merged tree.
	if _, err := os.Stat(filepath.Join(j.ChrootDir(), "etc")); err != nil {
		t.Errorf("host root not visible through overlay: %s", err)
	}

	// proc is freshly mounted inside the jail.
	if _, err := os.Stat(filepath.Join(j.ChrootDir(), "proc", "self")); err != nil {
		t.Errorf("proc not mounted inside jail: %s", err)
	}

	for _, dev := range []string{"dev/null", "dev/urandom"} {
		fi, err := os.Stat(filepath.Join(j.ChrootDir(), dev))
		if err != nil {
			t.Fatalf("missing device node %s: %s", dev, err)
		}
		if fi.Mode()&os.ModeCharDevice == 0 {
			t.Errorf("%s is not a character device", dev)
		}
	}
}

func TestWritesStayInUpperLayer(t *testing.T) {
	require.Root(t)
	require.Filesystem(t, "overlay")

	j, err := New()
	if err != nil {
		t.Fatalf("could not create jail: %s", err)
	}
	defer j.Close()

	canary := filepath.Join(t.TempDir(), "canary")
	if err := os.WriteFile(canary, []byte("host"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Overwrite the file through the merged tree and verify the host copy
	// is untouched.
	merged := filepath.Join(j.ChrootDir(), strings.TrimPrefix(canary, "/"))
	if err := os.WriteFile(merged, []byte("jail"), 0o644); err != nil {
		t.Fatalf("could not write through overlay: %s", err)
	}

	data, err := os.ReadFile(canary)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "host" {
		t.Errorf("host file modified through overlay: %q", data)
	}

	data, err = os.ReadFile(filepath.Join(j.base, "upper", strings.TrimPrefix(canary, "/")))
	if err != nil {
		t.Fatalf("write not captured in upper layer: %s", err)
	}
	if string(data) != "jail" {
		t.Errorf("upper layer holds %q, want %q", data, "jail")
	}
}

func TestClose(t *testing.T) {
	require.Root(t)
	require.Filesystem(t, "overlay")

	j, err := New()
	if err != nil {
		t.Fatalf("could not create jail: %s", err)
	}

	base := j.base
	j.Close()

	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Errorf("jail base %s still exists after Close", base)
	}

	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(mounts), base) {
		t.Errorf("mounts referencing %s remain after Close", base)
	}

	// Second Close is a no-op.
	j.Close()
}

func TestCloseBestEffort(t *testing.T) {
	// Cleanup must not raise even when there is nothing mounted: unmount
	// failures are logged and the scratch tree still goes away.
	base := t.TempDir()
	j := &Jail{
		base:   filepath.Join(base, "jail"),
		merged: filepath.Join(base, "jail", "merged"),
	}
	if err := os.MkdirAll(j.merged, 0o755); err != nil {
		t.Fatal(err)
	}

	j.Close()

	if _, err := os.Stat(j.base); !os.IsNotExist(err) {
		t.Errorf("jail base %s still exists after Close", j.base)
	}
}

func TestCloseNil(t *testing.T) {
	var j *Jail
	j.Close()
}
