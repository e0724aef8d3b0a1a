// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package submission

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/sylabs/runner/internal/pkg/lang"
	"github.com/sylabs/runner/internal/pkg/test/tool/dirs"
)

// chrootWithCwd prepares a fake chroot tree holding the re-rooted host cwd
// with the layout's source subdir, and returns the chroot and that subdir.
func chrootWithCwd(t *testing.T, hostCwd string, l lang.Layout) (chrootDir, srcDir string) {
	chrootDir = t.TempDir()
	srcDir, err := Dir(chrootDir, hostCwd, l)
	assert.NilError(t, err)
	dirs.MkdirAllOrFatal(t, srcDir, 0o755)
	return chrootDir, srcDir
}

func TestDir(t *testing.T) {
	l := lang.Layout{SolutionFile: "solution.py", SrcDir: "check"}

	tests := []struct {
		name      string
		chroot    string
		hostCwd   string
		want      string
		expectErr bool
	}{
		{
			name:    "Re-roots the host cwd",
			chroot:  "/tmp/x/merged",
			hostCwd: "/app",
			want:    "/tmp/x/merged/app/check",
		},
		{
			name:    "Nested cwd",
			chroot:  "/tmp/x/merged",
			hostCwd: "/srv/runner/workdir",
			want:    "/tmp/x/merged/srv/runner/workdir/check",
		},
		{
			name:      "Relative cwd rejected",
			chroot:    "/tmp/x/merged",
			hostCwd:   "app",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dir(tt.chroot, tt.hostCwd, l)
			if tt.expectErr {
				assert.Assert(t, err != nil)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestWrite(t *testing.T) {
	l, err := lang.Get(lang.Cpp)
	assert.NilError(t, err)

	hostCwd := "/app"
	chrootDir, srcDir := chrootWithCwd(t, hostCwd, l)

	f := Files{
		Solution: []byte("int main() { return 0; }\n"),
		Checker:  []byte("// checker\n"),
		Asserts:  []byte(`[{"arguments":[1,1],"expected":2}]`),
	}
	assert.NilError(t, Write(chrootDir, hostCwd, l, f))

	data, err := os.ReadFile(filepath.Join(srcDir, "solution.cpp"))
	assert.NilError(t, err)
	assert.DeepEqual(t, data, f.Solution)

	data, err = os.ReadFile(filepath.Join(srcDir, "checker.cpp"))
	assert.NilError(t, err)
	assert.DeepEqual(t, data, f.Checker)

	// Asserts bytes are written verbatim.
	data, err = os.ReadFile(filepath.Join(srcDir, AssertsFile))
	assert.NilError(t, err)
	assert.DeepEqual(t, data, f.Asserts)
}

func TestWriteSolutionOnly(t *testing.T) {
	l, err := lang.Get(lang.Python)
	assert.NilError(t, err)

	hostCwd := "/app"
	chrootDir, srcDir := chrootWithCwd(t, hostCwd, l)

	assert.NilError(t, Write(chrootDir, hostCwd, l, Files{Solution: []byte("print(1+1)\n")}))

	entries, err := os.ReadDir(srcDir)
	assert.NilError(t, err)
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].Name(), "solution.py")
}

func TestWriteCheckerIgnoredWithoutCheckerFile(t *testing.T) {
	// Interpreted languages ship their own checker; submitted checker text
	// has no filename to land under and is dropped.
	l, err := lang.Get(lang.Ruby)
	assert.NilError(t, err)

	hostCwd := "/app"
	chrootDir, srcDir := chrootWithCwd(t, hostCwd, l)

	f := Files{
		Solution: []byte("puts 2\n"),
		Checker:  []byte("unused\n"),
	}
	assert.NilError(t, Write(chrootDir, hostCwd, l, f))

	entries, err := os.ReadDir(srcDir)
	assert.NilError(t, err)
	assert.Equal(t, len(entries), 1)
}

func TestWriteDartUsesLib(t *testing.T) {
	l, err := lang.Get(lang.Dart)
	assert.NilError(t, err)

	hostCwd := "/app"
	chrootDir, srcDir := chrootWithCwd(t, hostCwd, l)
	assert.Equal(t, filepath.Base(srcDir), "lib")

	assert.NilError(t, Write(chrootDir, hostCwd, l, Files{
		Solution: []byte("int solution() => 2;\n"),
		Checker:  []byte("void main() {}\n"),
	}))

	_, err = os.Stat(filepath.Join(srcDir, "solution.dart"))
	assert.NilError(t, err)
	_, err = os.Stat(filepath.Join(srcDir, "checker.dart"))
	assert.NilError(t, err)
}

func TestWriteMissingDir(t *testing.T) {
	// The source subdir comes from the build scaffolding through the
	// overlay lower layer. When it is absent the write fails and the error
	// propagates.
	l, err := lang.Get(lang.Python)
	assert.NilError(t, err)

	err = Write(t.TempDir(), "/app", l, Files{Solution: []byte("print(1)\n")})
	assert.Assert(t, err != nil)
}
