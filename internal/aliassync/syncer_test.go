package aliassync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/p25cai/internal/database"
)

const talkgroups = `Decimal,Hex,Alpha Tag,Mode,Description,Tag,Category
2001,7d1,FD Dispatch,D,Fire Dispatch,Fire Dispatch,Fire
2002,7d2,FD Tac 1,DE,Fire Tactical 1,Fire-Tac,Fire
abc,0,Broken,D,,,
0,0,Zero,D,,,
3001,bb9,,D,No name,,
`

func newRepo(t *testing.T) *database.AliasRepository {
	t.Helper()
	db, err := database.NewDB(database.Config{Path: ":memory:"}, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewAliasRepository(db.GetDB())
}

func newSyncer(t *testing.T, repo *database.AliasRepository, source string) *Syncer {
	t.Helper()
	s, err := NewSyncer(repo, log.New(io.Discard), Config{Source: source, Kind: database.KindGroup})
	require.NoError(t, err)
	return s
}

func TestNewSyncerValidates(t *testing.T) {
	_, err := NewSyncer(nil, nil, Config{Kind: database.KindGroup})
	assert.Error(t, err)
	_, err = NewSyncer(nil, nil, Config{Source: "x.csv", Kind: "site"})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	s := newSyncer(t, nil, "unused.csv")
	aliases, err := s.Parse(strings.NewReader(talkgroups))
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, database.Alias{Kind: database.KindGroup, ID: 2002, Name: "FD Tac 1", Tag: "Fire-Tac", Description: "Fire Tactical 1"}, aliases[1])
}

func TestParseNeedsColumns(t *testing.T) {
	s := newSyncer(t, nil, "unused.csv")
	_, err := s.Parse(strings.NewReader("Hex,Alpha Tag\n7d1,x\n"))
	assert.Error(t, err)
	_, err = s.Parse(strings.NewReader("Decimal,Hex\n2001,7d1\n"))
	assert.Error(t, err)
}

func TestSyncFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tg.csv")
	require.NoError(t, os.WriteFile(path, []byte(talkgroups), 0o644))

	repo := newRepo(t)
	s := newSyncer(t, repo, path)
	require.NoError(t, s.SyncNow(context.Background()))

	alias, err := repo.Get(database.KindGroup, 2001)
	require.NoError(t, err)
	assert.Equal(t, "FD Dispatch", alias.Name)

	last, err := s.GetLastSyncTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), last, time.Minute)
}

func TestSyncFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p25cai/1.0", r.Header.Get("User-Agent"))
		io.WriteString(w, talkgroups)
	}))
	defer srv.Close()

	repo := newRepo(t)
	require.NoError(t, newSyncer(t, repo, srv.URL).SyncNow(context.Background()))
	n, err := repo.Count(database.KindGroup)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSyncRetriesAndGivesUp(t *testing.T) {
	old := RetryDelay
	RetryDelay = time.Millisecond
	defer func() { RetryDelay = old }()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newSyncer(t, newRepo(t), srv.URL).SyncNow(context.Background())
	assert.Error(t, err)
	assert.Equal(t, MaxRetries, calls)
}

func TestSyncEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tg.csv")
	require.NoError(t, os.WriteFile(path, []byte("Decimal,Alpha Tag\n"), 0o644))
	err := newSyncer(t, newRepo(t), path).SyncNow(context.Background())
	assert.ErrorIs(t, err, ErrNoAliases)
}
