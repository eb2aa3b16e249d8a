// Package service exposes evaluation, tokenization and history lookups to
// the network front ends. Each request gets its own lexer and evaluator.
package service

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"time"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/evaluator"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/lexer"
	"github.com/msto63/bexpr/internal/listing"
	"github.com/msto63/bexpr/internal/session"
	"github.com/msto63/bexpr/pkg/core/cache"
	"github.com/msto63/bexpr/pkg/core/logging"
)

// MaxInputSize limits the input of a single request
const MaxInputSize = 1 << 20

// DefaultHistoryLimit is used when a history request sets no limit
const DefaultHistoryLimit = 50

// EvaluateRequest represents an evaluation request
type EvaluateRequest struct {
	Input     string         `json:"input"`
	SessionID string         `json:"session_id,omitempty"`
	Source    history.Source `json:"-"`
}

// StatementResult is the outcome of one statement
type StatementResult struct {
	Statement int    `json:"statement"`
	Line      int    `json:"line"`
	Offset    int    `json:"offset"`
	Text      string `json:"text"`
	Value     int64  `json:"value,string"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// EvaluateResponse represents an evaluation response
type EvaluateResponse struct {
	SessionID string            `json:"session_id"`
	Results   []StatementResult `json:"results"`
	Errors    int               `json:"errors"`
}

// TokenInfo is one classified lexeme
type TokenInfo struct {
	Statement int    `json:"statement"`
	Index     int    `json:"index"` // -1 for invalid lexemes
	Lexeme    string `json:"lexeme"`
	Category  string `json:"category"`
	Line      int    `json:"line"`
	Offset    int    `json:"offset"`
}

// TokenizeResponse represents a tokenization response
type TokenizeResponse struct {
	Tokens  []TokenInfo `json:"tokens"`
	Listing string      `json:"listing"`
	Invalid int         `json:"invalid"`
}

// HistoryRequest represents a history query
type HistoryRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	OnlyErrors bool   `json:"only_errors,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// HistoryResponse represents a history query response
type HistoryResponse struct {
	Records []*history.Record `json:"records"`
}

// Config holds service configuration
type Config struct {
	MaxDepth int
	Store    history.Store // Optional
	Logger   *mdwlog.Logger

	// CacheSize bounds the number of cached tokenize responses; zero
	// disables the cache.
	CacheSize int
	CacheTTL  time.Duration
}

// Service evaluates statements on behalf of remote callers
type Service struct {
	config     Config
	logger     *logging.Logger
	tokens     *cache.Cache[*TokenizeResponse]
	requests   atomic.Int64
	statements atomic.Int64
	startTime  time.Time
}

// Stats reports request counters
type Stats struct {
	Requests   int64         `json:"requests"`
	Statements int64         `json:"statements"`
	Uptime     time.Duration `json:"uptime"`
	Cache      *cache.Stats  `json:"cache,omitempty"`
}

// NewService creates a new evaluation service
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = mdwlog.GetDefault()
	}
	s := &Service{
		config:    cfg,
		logger:    logging.Wrap(cfg.Logger.WithName("service")),
		startTime: time.Now(),
	}
	if cfg.CacheSize > 0 {
		s.tokens = cache.New[*TokenizeResponse](cache.Config{
			MaxItems: cfg.CacheSize,
			TTL:      cfg.CacheTTL,
		})
	}
	return s
}

// Close releases the tokenize cache
func (s *Service) Close() {
	if s.tokens != nil {
		s.tokens.Close()
	}
}

// Evaluate evaluates every statement of the input. Statement errors are
// part of the response; the returned error is reserved for invalid
// requests and storage failures.
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	if err := validateInput(req.Input); err != nil {
		return nil, err
	}
	s.requests.Add(1)

	source := req.Source
	if source == "" {
		source = history.SourceGRPC
	}

	sess := session.New(session.Config{
		Logger:   s.config.Logger,
		Store:    s.config.Store,
		Source:   source,
		ID:       req.SessionID,
		MaxDepth: s.config.MaxDepth,
	})

	resp := &EvaluateResponse{SessionID: sess.ID(), Results: []StatementResult{}}
	for _, line := range splitLines(req.Input) {
		outcomes, err := sess.Line(ctx, line)
		for _, o := range outcomes {
			resp.Results = append(resp.Results, toResult(o))
		}
		if err != nil {
			return nil, mdwerror.Wrap(err, "evaluation failed").WithOperation("service.Evaluate")
		}
	}

	stats := sess.Stats()
	resp.Errors = stats.Errors
	s.statements.Add(int64(stats.Statements))

	s.logger.Debug("Evaluated input",
		"session", resp.SessionID,
		"statements", stats.Statements,
		"errors", stats.Errors,
	)
	return resp, nil
}

// Tokenize classifies every lexeme of the input and renders the listing.
// Responses are shared through the cache and must not be modified.
func (s *Service) Tokenize(ctx context.Context, input string) (*TokenizeResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	s.requests.Add(1)

	if s.tokens == nil {
		return s.tokenize(input)
	}
	return s.tokens.GetOrSet(cache.Key(input), func() (*TokenizeResponse, error) {
		return s.tokenize(input)
	})
}

func (s *Service) tokenize(input string) (*TokenizeResponse, error) {
	resp := &TokenizeResponse{Tokens: []TokenInfo{}}
	lx := lexer.New("")
	statement, index := 1, 0
	for n, line := range splitLines(input) {
		lx.Reset(line)
		lx.SetLine(n + 1)
		for tok := lx.NextToken(); tok.Category != lexer.EndOfLine; tok = lx.NextToken() {
			info := TokenInfo{
				Statement: statement,
				Index:     -1,
				Lexeme:    tok.Lexeme,
				Category:  tok.Category.String(),
				Line:      tok.Line,
				Offset:    tok.Offset,
			}
			if tok.Category == lexer.Invalid {
				resp.Invalid++
			} else {
				info.Index = index
				index++
			}
			resp.Tokens = append(resp.Tokens, info)

			if tok.Category == lexer.SemiColon {
				statement++
				index = 0
			}
		}
	}

	var buf bytes.Buffer
	if _, err := listing.Write(strings.NewReader(input), &buf, s.config.Logger); err != nil {
		return nil, mdwerror.Wrap(err, "failed to render listing").
			WithCode(mdwerror.CodeInternal).
			WithOperation("service.Tokenize")
	}
	resp.Listing = buf.String()
	return resp, nil
}

// History returns recorded statements, newest first
func (s *Service) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	if s.config.Store == nil {
		return nil, mdwerror.New("history is disabled").
			WithCode(mdwerror.CodeServiceUnavailable).
			WithOperation("service.History")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if req.Kind != "" {
		if _, ok := evaluator.ParseKind(req.Kind); !ok {
			return nil, mdwerror.Newf("unknown error kind %q", req.Kind).
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("service.History")
		}
	}

	records, err := s.config.Store.Query(ctx, history.Filter{
		SessionID:  req.SessionID,
		OnlyErrors: req.OnlyErrors,
		ErrorKind:  req.Kind,
		Limit:      limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*history.Record{}
	}
	return &HistoryResponse{Records: records}, nil
}

// Stats returns request counters
func (s *Service) Stats() Stats {
	stats := Stats{
		Requests:   s.requests.Load(),
		Statements: s.statements.Load(),
		Uptime:     time.Since(s.startTime),
	}
	if s.tokens != nil {
		cs := s.tokens.Stats()
		stats.Cache = &cs
	}
	return stats
}

// HistoryEnabled reports whether a store is configured
func (s *Service) HistoryEnabled() bool {
	return s.config.Store != nil
}

// Ping checks the history store, if any
func (s *Service) Ping(ctx context.Context) error {
	if s.config.Store == nil {
		return nil
	}
	return s.config.Store.Ping(ctx)
}

func toResult(o session.Outcome) StatementResult {
	r := StatementResult{
		Statement: o.Statement,
		Line:      o.Line,
		Offset:    o.Offset,
		Text:      o.Text,
		Value:     o.Value,
	}
	if o.Failed() {
		r.Error = o.Err.Error()
		r.ErrorKind = o.Err.Kind.String()
	}
	return r
}

func validateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return mdwerror.New("input is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if len(input) > MaxInputSize {
		return mdwerror.Newf("input exceeds %d bytes", MaxInputSize).
			WithCode(mdwerror.CodeInvalidInput).
			WithDetail("size", len(input))
	}
	return nil
}

// splitLines splits input like bufio.ScanLines: one trailing newline is
// dropped and so is a '\r' ending a line
func splitLines(input string) []string {
	lines := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
