package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "nested", "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(0),
	}
}

func seed(t *testing.T, s Store, base time.Time) {
	t.Helper()
	ctx := context.Background()

	recs := []*Record{
		{SessionID: "a", Source: SourceCLI, Statement: 1, Text: "1 + 2 ;", Value: 3, Timestamp: base},
		{SessionID: "a", Source: SourceCLI, Statement: 2, Text: "4 / 0 ;", ErrorKind: "division_by_zero",
			ErrorMessage: "Evaluation Error: Division by zero", Timestamp: base.Add(time.Second)},
		{SessionID: "b", Source: SourceGRPC, Statement: 1, Text: "2 ^ 3 ;", Value: 8, Timestamp: base.Add(2 * time.Second)},
		{SessionID: "b", Source: SourceGRPC, Statement: 2, Text: "( 1 ;", ErrorKind: "unbalanced_paren",
			ErrorMessage: "Syntax Error: Unbalanced right parenthesis", Timestamp: base.Add(3 * time.Second)},
	}
	n, err := s.RecordBatch(ctx, recs)
	require.NoError(t, err)
	require.Equal(t, len(recs), n)
}

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := &Record{SessionID: NewSessionID(), Source: SourceREPL, Statement: 1, Text: "7 ;", Value: 7,
				Duration: 1500 * time.Microsecond}
			require.NoError(t, s.Record(context.Background(), rec))
			require.NotEmpty(t, rec.ID)
			require.False(t, rec.Timestamp.IsZero())

			got, err := s.Query(context.Background(), Filter{SessionID: rec.SessionID})
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, rec.ID, got[0].ID)
			require.Equal(t, "7 ;", got[0].Text)
			require.Equal(t, int64(7), got[0].Value)
			require.Equal(t, SourceREPL, got[0].Source)
			require.Equal(t, 1500*time.Microsecond, got[0].Duration)
			require.False(t, got[0].Failed())
		})
	}
}

func TestQueryFilters(t *testing.T) {
	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s, base)
			ctx := context.Background()

			all, err := s.Query(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			require.Equal(t, "( 1 ;", all[0].Text, "newest first")

			session, err := s.Query(ctx, Filter{SessionID: "a"})
			require.NoError(t, err)
			require.Len(t, session, 2)

			grpcOnly, err := s.Query(ctx, Filter{Source: SourceGRPC})
			require.NoError(t, err)
			require.Len(t, grpcOnly, 2)

			failed, err := s.Query(ctx, Filter{OnlyErrors: true})
			require.NoError(t, err)
			require.Len(t, failed, 2)
			for _, rec := range failed {
				require.True(t, rec.Failed())
			}

			byKind, err := s.Query(ctx, Filter{ErrorKind: "division_by_zero"})
			require.NoError(t, err)
			require.Len(t, byKind, 1)
			require.Equal(t, "4 / 0 ;", byKind[0].Text)

			recent, err := s.Query(ctx, Filter{Since: base.Add(2 * time.Second)})
			require.NoError(t, err)
			require.Len(t, recent, 2)

			page, err := s.Query(ctx, Filter{Limit: 2, Offset: 1})
			require.NoError(t, err)
			require.Len(t, page, 2)
			require.Equal(t, "2 ^ 3 ;", page[0].Text)
			require.Equal(t, "4 / 0 ;", page[1].Text)
		})
	}
}

func TestStats(t *testing.T) {
	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.Stats(context.Background())
			require.NoError(t, err)
			require.Zero(t, empty.Total)
			require.True(t, empty.First.IsZero())

			seed(t, s, base)
			stats, err := s.Stats(context.Background())
			require.NoError(t, err)
			require.Equal(t, int64(4), stats.Total)
			require.Equal(t, int64(2), stats.Errors)
			require.Equal(t, int64(2), stats.Sessions)
			require.Equal(t, map[string]int64{"division_by_zero": 1, "unbalanced_paren": 1}, stats.ByKind)
			require.True(t, stats.First.Equal(base))
			require.True(t, stats.Last.Equal(base.Add(3*time.Second)))
		})
	}
}

func TestPrune(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := &Record{SessionID: "old", Source: SourceCLI, Statement: 1, Text: "1 ;", Value: 1,
				Timestamp: time.Now().Add(-48 * time.Hour)}
			fresh := &Record{SessionID: "new", Source: SourceCLI, Statement: 1, Text: "2 ;", Value: 2}
			require.NoError(t, s.Record(ctx, old))
			require.NoError(t, s.Record(ctx, fresh))

			deleted, err := s.Prune(ctx, 24*time.Hour)
			require.NoError(t, err)
			require.Equal(t, int64(1), deleted)

			left, err := s.Query(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, left, 1)
			require.Equal(t, "new", left[0].SessionID)
		})
	}
}

func TestPing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ping(context.Background()))
		})
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), &Record{SessionID: "x", Source: SourceCLI, Statement: 1, Text: "5 ;", Value: 5}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Query(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(5), got[0].Value)
}

func TestSQLiteClosedStoreReportsDatabaseError(t *testing.T) {
	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Ping(context.Background())
	require.Error(t, err)
	require.True(t, mdwerror.HasCode(err, mdwerror.CodeDatabaseError))
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Record(ctx, &Record{SessionID: "s", Source: SourceCLI, Statement: i, Text: "1 ;",
			Timestamp: time.Now().Add(time.Duration(i) * time.Millisecond)}))
	}

	got, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 3, got[0].Statement)
	require.Equal(t, 2, got[1].Statement)
}
