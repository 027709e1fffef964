package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testKey(hash string) Key {
	return Key{Hash: hash, Mode: ModeOne, Turn: solver.EnvFirst, KMin: 1, K: 3, KInc: 1}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='verdicts'").Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, Record{Key: testKey("h"), Verdict: solver.Realizable, RunID: "r"}))
	_, ok, err := s.Lookup(ctx, testKey("h"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		assert.NoError(t, s.verifyPragma(name, want))
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
	assert.Contains(t, getTableIndexes(t, s.db, "verdicts"), "idx_verdicts_run_id")
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Apply schema but not migrations.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	db.Close()

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
	assert.Contains(t, getTableIndexes(t, s.db, "verdicts"), "idx_verdicts_run_id")
}

func TestRecordLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := &testutil.SequentialRunIDs{}

	_, ok, err := s.Lookup(ctx, testKey("abc"))
	require.NoError(t, err)
	assert.False(t, ok)

	rec := Record{
		Key:        testKey("abc"),
		Verdict:    solver.Unrealizable,
		KReached:   3,
		Iterations: 7,
		Stats:      solver.Stats{Iterations: 7, Size: 4, InputClasses: 2, Actions: 5, CriticalInputs: 1},
		RunID:      ids.Generate(),
	}
	require.NoError(t, s.Record(ctx, rec))

	got, ok, err := s.Lookup(ctx, testKey("abc"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, solver.Unrealizable, got.Verdict)
	assert.Equal(t, 3, got.KReached)
	assert.Equal(t, 7, got.Iterations)
	assert.Equal(t, rec.Stats, got.Stats)
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", got.RunID)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, int64(1), got.Seq)
}

func TestRecord_FirstWriteWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Record{Key: testKey("h"), Verdict: solver.Realizable, RunID: "a"}))
	require.NoError(t, s.Record(ctx, Record{Key: testKey("h"), Verdict: solver.Unknown, RunID: "b"}))

	got, ok, err := s.Lookup(ctx, testKey("h"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, solver.Realizable, got.Verdict)
	assert.Equal(t, "a", got.RunID)
}

func TestKey_DistinguishesQueries(t *testing.T) {
	base := testKey("h")
	variants := []Key{base}
	for _, mut := range []func(*Key){
		func(k *Key) { k.Hash = "other" },
		func(k *Key) { k.Mode = ModeDual },
		func(k *Key) { k.Turn = solver.SysFirst },
		func(k *Key) { k.KMin = 2 },
		func(k *Key) { k.K = 4 },
		func(k *Key) { k.KInc = 2 },
	} {
		k := base
		mut(&k)
		variants = append(variants, k)
	}

	seen := map[string]bool{}
	for _, k := range variants {
		id, err := k.ID()
		require.NoError(t, err)
		assert.False(t, seen[id], "collision for %+v", k)
		seen[id] = true
	}

	again, err := testKey("h").ID()
	require.NoError(t, err)
	assert.True(t, seen[again])
}

func TestHistory_SeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := &testutil.SequentialRunIDs{}

	for _, k := range []int{3, 1, 2} {
		key := testKey("h")
		key.K = k
		require.NoError(t, s.Record(ctx, Record{Key: key, Verdict: solver.Unknown, RunID: ids.Generate()}))
	}
	require.NoError(t, s.Record(ctx, Record{Key: testKey("other"), Verdict: solver.Unknown, RunID: ids.Generate()}))

	hist, err := s.History(ctx, "h")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	var ks []int
	for i, rec := range hist {
		assert.Equal(t, int64(i+1), rec.Seq)
		ks = append(ks, rec.Key.K)
	}
	assert.Equal(t, []int{3, 1, 2}, ks)
}

func TestRecord_ExplicitSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Record{Key: testKey("a"), Verdict: solver.Realizable, RunID: "r", Seq: 10}))
	require.NoError(t, s.Record(ctx, Record{Key: testKey("b"), Verdict: solver.Realizable, RunID: "r"}))

	recs, err := s.Run(ctx, "r")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(10), recs[0].Seq)
	assert.Equal(t, int64(11), recs[1].Seq)
	assert.Equal(t, ModeOne, recs[1].Key.Mode)
}

func TestUUIDv7Generator(t *testing.T) {
	var gen RunIDGenerator = UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	u, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}

func TestSequentialRunIDsSatisfyGenerator(t *testing.T) {
	var gen RunIDGenerator = &testutil.SequentialRunIDs{}
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", gen.Generate())
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	require.NoError(t, err)
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		indexes = append(indexes, name)
	}
	slices.Sort(indexes)
	return indexes
}
