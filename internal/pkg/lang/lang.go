// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package lang

import (
	"fmt"
	"sort"
)

// Slug identifies one of the supported language toolchains.
type Slug string

const (
	Clojure Slug = "clojure"
	Cpp     Slug = "cpp"
	Csharp  Slug = "csharp"
	Dart    Slug = "dart"
	Elixir  Slug = "elixir"
	Golang  Slug = "golang"
	Haskell Slug = "haskell"
	Java    Slug = "java"
	JS      Slug = "js"
	Kotlin  Slug = "kotlin"
	PHP     Slug = "php"
	Python  Slug = "python"
	Ruby    Slug = "ruby"
	Rust    Slug = "rust"
	Swift   Slug = "swift"
	TS      Slug = "ts"
)

// Layout describes where a submission lands relative to the working
// directory inside the jail, and under which filenames the build recipes
// expect to find it.
type Layout struct {
	// SolutionFile is the filename the submitted solution is written to.
	SolutionFile string
	// CheckerFile is the filename the submitted checker is written to.
	// Empty when the toolchain ships a pre-built in-tree checker.
	CheckerFile string
	// SrcDir is the subdirectory of the working directory that receives
	// the files above.
	SrcDir string
}

// TypeScript submissions are written under the .js solution filename, the
// build recipe compiles from that single input.
var layouts = map[Slug]Layout{
	Clojure: {SolutionFile: "solution.clj", SrcDir: "check"},
	Cpp:     {SolutionFile: "solution.cpp", CheckerFile: "checker.cpp", SrcDir: "check"},
	Csharp:  {SolutionFile: "Solution.cs", CheckerFile: "Checker.cs", SrcDir: "check"},
	Dart:    {SolutionFile: "solution.dart", CheckerFile: "checker.dart", SrcDir: "lib"},
	Elixir:  {SolutionFile: "solution.exs", SrcDir: "check"},
	Golang:  {SolutionFile: "solution.go", CheckerFile: "checker.go", SrcDir: "check"},
	Haskell: {SolutionFile: "Solution.hs", CheckerFile: "Checker.hs", SrcDir: "check"},
	Java:    {SolutionFile: "Solution.java", CheckerFile: "Checker.java", SrcDir: "check"},
	JS:      {SolutionFile: "solution.js", SrcDir: "check"},
	Kotlin:  {SolutionFile: "solution.kt", CheckerFile: "checker.kt", SrcDir: "check"},
	PHP:     {SolutionFile: "solution.php", SrcDir: "check"},
	Python:  {SolutionFile: "solution.py", SrcDir: "check"},
	Ruby:    {SolutionFile: "solution.rb", SrcDir: "check"},
	Rust:    {SolutionFile: "solution.rs", CheckerFile: "checker.rs", SrcDir: "check"},
	Swift:   {SolutionFile: "solution.swift", CheckerFile: "checker.swift", SrcDir: "check"},
	TS:      {SolutionFile: "solution.js", SrcDir: "check"},
}

// Compiled languages without a pre-built in-tree checker. Submissions for
// these must carry checker source.
var checkerRequired = map[Slug]bool{
	Cpp:     true,
	Csharp:  true,
	Dart:    true,
	Golang:  true,
	Haskell: true,
	Java:    true,
	Kotlin:  true,
	Rust:    true,
	Swift:   true,
}

// Get returns the submission layout for the given slug.
func Get(s Slug) (Layout, error) {
	l, ok := layouts[s]
	if !ok {
		return Layout{}, fmt.Errorf("unknown lang_slug %q", s)
	}
	return l, nil
}

// CheckerRequired reports whether submissions for the given slug must
// include checker source.
func CheckerRequired(s Slug) bool {
	return checkerRequired[s]
}

// Slugs returns the sorted list of supported language slugs.
func Slugs() []string {
	slugs := make([]string, 0, len(layouts))
	for s := range layouts {
		slugs = append(slugs, string(s))
	}
	sort.Strings(slugs)
	return slugs
}
