package repl

import (
	"context"

	"github.com/msto63/bexpr/internal/server"
	"github.com/msto63/bexpr/internal/session"
)

// Entry is one evaluated statement shown in the transcript
type Entry struct {
	Statement int
	Text      string
	Value     int64
	Error     string
}

// Failed reports whether the statement was rejected
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Backend evaluates one input line
type Backend interface {
	Evaluate(ctx context.Context, line string) ([]Entry, error)
	Name() string
}

// LocalBackend evaluates in process through a session
type LocalBackend struct {
	session *session.Session
}

// NewLocalBackend creates a backend evaluating with sess
func NewLocalBackend(sess *session.Session) *LocalBackend {
	return &LocalBackend{session: sess}
}

// Evaluate implements Backend
func (b *LocalBackend) Evaluate(ctx context.Context, line string) ([]Entry, error) {
	outcomes, err := b.session.Line(ctx, line)
	entries := make([]Entry, 0, len(outcomes))
	for _, o := range outcomes {
		entry := Entry{Statement: o.Statement, Text: o.Text, Value: o.Value}
		if o.Failed() {
			entry.Error = o.Err.Error()
		}
		entries = append(entries, entry)
	}
	return entries, err
}

// Name implements Backend
func (b *LocalBackend) Name() string {
	return "local"
}

// RemoteBackend evaluates through a gRPC evaluator. Statement numbers
// continue across lines like they do locally.
type RemoteBackend struct {
	client    *server.Client
	address   string
	sessionID string
	offset    int
}

// NewRemoteBackend creates a backend calling client
func NewRemoteBackend(client *server.Client, address string) *RemoteBackend {
	return &RemoteBackend{client: client, address: address}
}

// Evaluate implements Backend
func (b *RemoteBackend) Evaluate(ctx context.Context, line string) ([]Entry, error) {
	resp, err := b.client.Evaluate(ctx, line, b.sessionID)
	if err != nil {
		return nil, err
	}
	b.sessionID = resp.SessionID

	entries := make([]Entry, 0, len(resp.Results))
	for _, r := range resp.Results {
		entries = append(entries, Entry{
			Statement: b.offset + r.Statement,
			Text:      r.Text,
			Value:     r.Value,
			Error:     r.Error,
		})
	}
	b.offset += len(resp.Results)
	return entries, nil
}

// Name implements Backend
func (b *RemoteBackend) Name() string {
	return b.address
}
