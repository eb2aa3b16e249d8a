// Package history persists evaluated statements so that runs from the CLI,
// the REPL and the network front ends can be inspected later.
package history

import (
	"context"
	"time"
)

// Source identifies the front end that evaluated a statement
type Source string

const (
	SourceCLI     Source = "cli"
	SourceREPL    Source = "repl"
	SourceGRPC    Source = "grpc"
	SourceGateway Source = "gateway"
)

// Record is one evaluated statement
type Record struct {
	ID           string        `json:"id"`
	SessionID    string        `json:"session_id"`
	Source       Source        `json:"source"`
	Statement    int           `json:"statement"` // 1-based number within the session
	Text         string        `json:"text"`
	Value        int64         `json:"value,string"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Line         int           `json:"line,omitempty"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Failed reports whether the statement was rejected
func (r *Record) Failed() bool {
	return r.ErrorKind != ""
}

// Filter defines criteria for querying records
type Filter struct {
	SessionID  string
	Source     Source
	OnlyErrors bool
	ErrorKind  string // Implies OnlyErrors
	Since      time.Time
	Limit      int
	Offset     int
}

// Stats summarizes the stored history
type Stats struct {
	Total    int64            `json:"total"`
	Errors   int64            `json:"errors"`
	Sessions int64            `json:"sessions"`
	ByKind   map[string]int64 `json:"by_kind"`
	First    time.Time        `json:"first,omitempty"`
	Last     time.Time        `json:"last,omitempty"`
}

// Store defines the interface for history persistence
type Store interface {
	Record(ctx context.Context, rec *Record) error
	RecordBatch(ctx context.Context, recs []*Record) (int, error)
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
