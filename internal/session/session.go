// Package session evaluates statements line by line for one caller, prints
// results and diagnostics and optionally records every statement in the
// history store.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/evaluator"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/lexer"
)

// MaxLineLength is the longest input line Run accepts
const MaxLineLength = 1 << 20

// Config configures a session
type Config struct {
	Out      io.Writer // Results; nil discards them
	Diag     io.Writer // Error messages; nil discards them
	Logger   *mdwlog.Logger
	Store    history.Store // Optional
	Source   history.Source
	ID       string // Generated when empty
	MaxDepth int
	Verbose  bool // Print error positions along with messages
}

// Outcome is one evaluated statement
type Outcome struct {
	Statement int
	Line      int
	Text      string
	Value     int64
	Offset    int
	Err       *evaluator.Error
	Duration  time.Duration
}

// Failed reports whether the statement was rejected
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Stats summarizes a session
type Stats struct {
	Lines      int
	Statements int
	Errors     int
}

// Session evaluates input for one caller. It is not safe for concurrent use.
type Session struct {
	id        string
	config    Config
	logger    *mdwlog.Logger
	lexer     *lexer.Lexer
	eval      *evaluator.Evaluator
	line      int
	statement int
	stats     Stats
}

// New creates a session
func New(cfg Config) *Session {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Diag == nil {
		cfg.Diag = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = mdwlog.GetDefault()
	}
	if cfg.Source == "" {
		cfg.Source = history.SourceCLI
	}
	if cfg.ID == "" {
		cfg.ID = history.NewSessionID()
	}

	logger := cfg.Logger.WithFields(mdwlog.Fields{
		"component": "session",
		"session":   cfg.ID,
		"source":    string(cfg.Source),
	})

	lx := lexer.New("")
	return &Session{
		id:     cfg.ID,
		config: cfg,
		logger: logger,
		lexer:  lx,
		eval:   evaluator.New(lx, evaluator.Options{Logger: logger, MaxDepth: cfg.MaxDepth}),
	}
}

// ID returns the session identifier used for history records
func (s *Session) ID() string {
	return s.id
}

// Stats returns counters gathered so far
func (s *Session) Stats() Stats {
	return s.stats
}

// Line evaluates every statement on line. A rejected statement is
// reported and skipped up to its ';', and the statements after it are
// evaluated normally. The returned error is non-nil only when writing
// output or recording history fails.
func (s *Session) Line(ctx context.Context, line string) ([]Outcome, error) {
	s.line++
	s.stats.Lines++
	s.lexer.Reset(line)
	s.lexer.SetLine(s.line)

	var outcomes []Outcome
	for !s.eval.Done() {
		start := time.Now()
		result, err := s.eval.Next()

		s.statement++
		s.stats.Statements++
		outcome := Outcome{
			Statement: s.statement,
			Line:      s.line,
			Text:      result.Text,
			Value:     result.Value,
			Offset:    result.Offset,
			Duration:  time.Since(start),
		}

		if err != nil {
			var evalErr *evaluator.Error
			if !errors.As(err, &evalErr) {
				return outcomes, evaluator.ToCoreError(err)
			}
			outcome.Err = evalErr
			s.stats.Errors++
			s.logger.WithField("statement", s.statement).LogError(evaluator.ToCoreError(evalErr))
		}

		outcomes = append(outcomes, outcome)
		if err := s.emit(outcome); err != nil {
			return outcomes, err
		}
		if err := s.record(ctx, outcome); err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// Run evaluates every line read from in
func (s *Session) Run(ctx context.Context, in io.Reader) (Stats, error) {
	timer := s.logger.StartTimer("session")

	err := s.scan(ctx, in)
	timer.WithField("lines", s.stats.Lines).
		WithField("statements", s.stats.Statements).
		WithField("errors", s.stats.Errors)
	if err != nil {
		timer.Fail(err)
		return s.stats, err
	}
	timer.Stop()
	return s.stats, nil
}

func (s *Session) scan(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Line(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return mdwerror.Wrap(err, "failed to read input").WithCode(mdwerror.CodeInvalidInput)
	}
	return nil
}

func (s *Session) emit(o Outcome) error {
	var err error
	switch {
	case o.Failed() && s.config.Verbose:
		_, err = fmt.Fprintf(s.config.Diag, "Statement #%d: %s\n", o.Statement, o.Err.Detail())
	case o.Failed():
		_, err = fmt.Fprintln(s.config.Diag, o.Err.Error())
	default:
		_, err = fmt.Fprintf(s.config.Out, "Statement #%d: %s = %d\n", o.Statement, o.Text, o.Value)
	}
	if err != nil {
		return mdwerror.Wrap(err, "failed to write output").WithCode(mdwerror.CodeInternal)
	}
	return nil
}

func (s *Session) record(ctx context.Context, o Outcome) error {
	if s.config.Store == nil {
		return nil
	}

	rec := &history.Record{
		SessionID: s.id,
		Source:    s.config.Source,
		Statement: o.Statement,
		Text:      o.Text,
		Value:     o.Value,
		Line:      o.Line,
		Duration:  o.Duration,
	}
	if o.Failed() {
		rec.ErrorKind = o.Err.Kind.String()
		rec.ErrorMessage = o.Err.Error()
	}

	if err := s.config.Store.Record(ctx, rec); err != nil {
		s.logger.LogError(mdwerror.Wrap(err, "failed to record statement"))
		return err
	}
	return nil
}
