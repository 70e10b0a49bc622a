// Package omr drives the external optical-mark analysis script. The script
// receives positional arguments and reports a single JSON document on stdout;
// stderr is captured verbatim for operator diagnostics.
package omr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrProcess reports that the analysis process could not complete: the
	// interpreter was missing, the script exited non-zero, or the run timed
	// out. The raw stderr is preserved on the returned Result.
	ErrProcess = errors.New("omr: analysis process failed")

	// ErrParse reports that the process exited cleanly but its stdout did
	// not contain the expected JSON document.
	ErrParse = errors.New("omr: analysis output malformed")
)

// resultSchema pins the stdout contract of the analysis script. Anything the
// script prints beyond these two fields is ignored.
const resultSchema = `{
  "type": "object",
  "required": ["pontuacao", "pdf_corrigido"],
  "properties": {
    "pontuacao": {"type": "number", "minimum": 0},
    "pdf_corrigido": {"type": "string", "minLength": 1}
  }
}`

// Request describes one analysis run. AnswerKey maps zero-based question
// indexes to zero-based alternative indexes and is serialized as a JSON
// object argument.
type Request struct {
	DocumentPath string
	AnswerKey    map[int]int
	StudentID    string
	ClassID      string
	OutputDir    string
}

// Result carries the parsed script output plus the raw streams. Stdout and
// Stderr are populated even when Run returns an error.
type Result struct {
	Score         float64
	CorrectedPath string
	Stdout        string
	Stderr        string
	Duration      time.Duration
}

// Runner executes one optical-mark analysis per call. Implementations must
// not retry on their own; retry policy belongs to the caller.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Config controls how ProcessRunner spawns the script.
type Config struct {
	// Command is the interpreter, e.g. "python3".
	Command string
	// Script is the path to the analysis script, passed as the first
	// positional argument.
	Script string
	// Timeout bounds a single run. Zero means no bound beyond the caller's
	// context.
	Timeout time.Duration
}

type scriptOutput struct {
	Score         float64 `json:"pontuacao"`
	CorrectedPath string  `json:"pdf_corrigido"`
}

// ProcessRunner runs the script as a direct child process with buffered
// stdout/stderr.
type ProcessRunner struct {
	cfg     Config
	schema  *jsonschema.Schema
	metrics *Metrics
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewProcessRunner validates the configuration and compiles the output
// schema. Metrics may be nil.
func NewProcessRunner(cfg Config, metrics *Metrics, logger zerolog.Logger) (*ProcessRunner, error) {
	if cfg.Command == "" {
		return nil, errors.New("omr: command is required")
	}
	if cfg.Script == "" {
		return nil, errors.New("omr: script path is required")
	}

	schema, err := jsonschema.CompileString("omr-result.json", resultSchema)
	if err != nil {
		return nil, fmt.Errorf("omr: compile result schema: %w", err)
	}

	return &ProcessRunner{
		cfg:     cfg,
		schema:  schema,
		metrics: metrics,
		tracer:  otel.Tracer("pkg.omr"),
		logger:  logger.With().Str("component", "omr_runner").Logger(),
	}, nil
}

// Run spawns the script and parses its stdout. The positional argument order
// is fixed: script, document path, answer-key JSON, student id, class id,
// output directory.
func (r *ProcessRunner) Run(ctx context.Context, req Request) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "omr.Run", trace.WithAttributes(
		attribute.String("omr.student_id", req.StudentID),
		attribute.String("omr.class_id", req.ClassID),
	))
	defer span.End()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	keyJSON, err := json.Marshal(req.AnswerKey)
	if err != nil {
		return Result{}, fmt.Errorf("omr: encode answer key: %w", err)
	}

	args := []string{
		r.cfg.Script,
		req.DocumentPath,
		string(keyJSON),
		req.StudentID,
		req.ClassID,
		req.OutputDir,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.cfg.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.observe("timeout", res.Duration)
		r.logger.Error().
			Str("student_id", req.StudentID).
			Dur("duration", res.Duration).
			Msg("analysis timed out")
		return res, fmt.Errorf("%w: timed out after %s", ErrProcess, r.cfg.Timeout)
	}

	if runErr != nil {
		r.observe("process_error", res.Duration)
		r.logger.Error().
			Err(runErr).
			Str("student_id", req.StudentID).
			Str("stderr", strings.TrimSpace(res.Stderr)).
			Msg("analysis process failed")
		return res, fmt.Errorf("%w: %v", ErrProcess, runErr)
	}

	parsed, err := r.decode(res.Stdout)
	if err != nil {
		r.observe("parse_error", res.Duration)
		r.logger.Error().
			Err(err).
			Str("student_id", req.StudentID).
			Msg("analysis output rejected")
		return res, err
	}

	res.Score = parsed.Score
	res.CorrectedPath = parsed.CorrectedPath
	r.observe("ok", res.Duration)
	r.logger.Info().
		Str("student_id", req.StudentID).
		Float64("score", res.Score).
		Dur("duration", res.Duration).
		Msg("analysis completed")
	return res, nil
}

func (r *ProcessRunner) decode(raw string) (scriptOutput, error) {
	trimmed := strings.TrimSpace(raw)

	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return scriptOutput{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return scriptOutput{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var out scriptOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return scriptOutput{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return out, nil
}

func (r *ProcessRunner) observe(outcome string, d time.Duration) {
	r.metrics.observe(outcome, d.Seconds())
}
