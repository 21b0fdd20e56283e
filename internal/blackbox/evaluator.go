// Package blackbox runs the external program for one candidate assignment and
// turns its output into a score.
package blackbox

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// Observer is called after every evaluation.
type Observer func(a space.Assignment, r Result, elapsed time.Duration)

// Evaluator runs the black box synchronously. Calls are never retried and an
// in-flight call always runs to completion.
type Evaluator struct {
	path      string
	space     *space.Space
	markers   []string
	dir       string
	metrics   *metrics.Metrics
	observers []Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMarkers replaces the score marker phrases.
func WithMarkers(markers ...string) Option {
	return func(e *Evaluator) {
		if len(markers) > 0 {
			e.markers = append([]string(nil), markers...)
		}
	}
}

// WithWorkDir runs the program from dir.
func WithWorkDir(dir string) Option {
	return func(e *Evaluator) { e.dir = dir }
}

// WithMetrics counts every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithObserver registers a callback run after each evaluation.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an evaluator for the program at path over sp.
func New(path string, sp *space.Space, opts ...Option) *Evaluator {
	e := &Evaluator{
		path:    path,
		space:   sp,
		markers: append([]string(nil), DefaultMarkers...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the program path as configured.
func (e *Evaluator) Path() string { return e.path }

// Space returns the parameter space the evaluator formats arguments for.
func (e *Evaluator) Space() *space.Space { return e.space }

// Evaluate runs the program once with a's values as positional arguments.
func (e *Evaluator) Evaluate(a space.Assignment) Result {
	start := time.Now()
	res := e.evaluate(a)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordEvaluation(res.Outcome(), elapsed)
	}
	for _, o := range e.observers {
		o(a, res, elapsed)
	}
	return res
}

func (e *Evaluator) evaluate(a space.Assignment) Result {
	args, err := e.space.Args(a)
	if err != nil {
		return Failure(MissingValue, err.Error())
	}

	cmd := exec.Command(e.resolvePath(), args...)
	cmd.Dir = e.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := fmt.Sprintf("exit status %d", exitErr.ExitCode())
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				detail += ": " + truncate(msg, 512)
			}
			logger.Debug("black box exited with error", "args", args, "code", exitErr.ExitCode())
			return Failure(NonZeroExit, detail)
		}
		logger.Debug("black box could not be started", "path", e.path, "error", err)
		return Failure(ProcessNotFound, err.Error())
	}

	res := ParseOutput(stdout.String(), e.markers)
	if res.OK() {
		logger.Debug("black box evaluated", "args", args, "score", res.Score)
	} else {
		logger.Debug("black box output rejected", "args", args, "detail", res.Detail)
	}
	return res
}

// resolvePath turns a bare program name that exists in the working
// directory into ./name, so it is not looked up on PATH.
func (e *Evaluator) resolvePath() string {
	if e.path == "" || filepath.Base(e.path) != e.path {
		return e.path
	}
	dir := e.dir
	if dir == "" {
		dir = "."
	}
	if info, err := os.Stat(filepath.Join(dir, e.path)); err == nil && !info.IsDir() {
		return "." + string(filepath.Separator) + e.path
	}
	return e.path
}
