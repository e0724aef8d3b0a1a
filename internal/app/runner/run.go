// Copyright (c) 2025, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package runner

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sylabs/runner/internal/pkg/jail"
	"github.com/sylabs/runner/internal/pkg/lang"
	"github.com/sylabs/runner/internal/pkg/sandbox"
	"github.com/sylabs/runner/internal/pkg/submission"
)

// Payload is one submission: a solution in one of the supported languages,
// optional checker source, optional asserts fixture and an optional
// wall-clock limit.
type Payload struct {
	Timeout      *string   `json:"timeout"`
	SolutionText string    `json:"solution_text"`
	LangSlug     lang.Slug `json:"lang_slug"`
	Asserts      *string   `json:"asserts"`
	CheckerText  *string   `json:"checker_text"`
}

// Response carries the child's captured streams and exit status. ExitCode
// is null when the child was killed by a signal.
type Response struct {
	ExitCode *int   `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)

	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		logrus.WithError(err).Error("Decode payload")
		writeError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	timeout := s.cfg.DefaultTimeout
	if p.Timeout != nil {
		var err error
		timeout, err = time.ParseDuration(*p.Timeout)
		if err != nil {
			logrus.WithError(err).Error("Parse timeout")
			writeError(w, "wrong timeout format", http.StatusBadRequest)
			return
		}
	}

	layout, err := lang.Get(p.LangSlug)
	if err != nil {
		logrus.WithError(err).Error("Resolve language layout")
		writeError(w, "unknown lang_slug", http.StatusBadRequest)
		return
	}

	if lang.CheckerRequired(p.LangSlug) && p.CheckerText == nil {
		writeError(w, "checker_text is required", http.StatusBadRequest)
		return
	}

	logrus.Debugf("Running %s submission: solution %dB, checker %t, asserts %t, timeout %s",
		p.LangSlug, len(p.SolutionText), p.CheckerText != nil, p.Asserts != nil, timeout)

	j, err := jail.New()
	if err != nil {
		internalError(w, err, "Create jail")
		return
	}
	defer j.Close()

	cwd, err := os.Getwd()
	if err != nil {
		internalError(w, err, "Get current dir")
		return
	}

	files := submission.Files{Solution: []byte(p.SolutionText)}
	if p.CheckerText != nil {
		files.Checker = []byte(*p.CheckerText)
	}
	if p.Asserts != nil {
		files.Asserts = []byte(*p.Asserts)
	}
	if err := submission.Write(j.ChrootDir(), cwd, layout, files); err != nil {
		internalError(w, err, "Materialize submission")
		return
	}

	res, err := sandbox.Run(r.Context(), sandbox.Config{
		ChrootDir: j.ChrootDir(),
		Dir:       cwd,
		Timeout:   timeout,
	})
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		logrus.Warnf("Submission hit the %s time limit", timeout)
		writeError(w, "timelimit exceeded", http.StatusRequestTimeout)
		return
	case errors.Is(err, context.Canceled):
		// Client is gone, only the jail cleanup matters.
		logrus.Debug("Request canceled, discarding run")
		return
	case err != nil:
		internalError(w, err, "Run check")
		return
	}

	logrus.Debugf("STDOUT: %s", res.Stdout)
	logrus.Debugf("STDERR: %s", res.Stderr)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}); err != nil {
		logrus.WithError(err).Error("Encode response")
	}
}

// writeError sends a plain text error body, verbatim.
func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, msg); err != nil {
		logrus.WithError(err).Error("Write error response")
	}
}

func internalError(w http.ResponseWriter, err error, msg string) {
	logrus.WithError(err).Error(msg)
	writeError(w, "internal error", http.StatusInternalServerError)
}
