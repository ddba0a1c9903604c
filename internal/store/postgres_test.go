package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pgColumns = []string{"id", "title", "company", "url", "source", "is_remote", "description", "match_score", "match_reason", "query", "created_at"}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_jobs_created_at").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresStore(mock).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertNew(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	j := job("https://a.example/1", intPtr(70))
	mock.ExpectQuery(`INSERT INTO jobs .* ON CONFLICT \(url\) DO NOTHING`).
		WithArgs(j.Title, j.Company, j.URL, j.Source, j.IsRemote, j.Description, j.MatchScore, j.MatchReason, j.Query, j.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	got, added, err := NewPostgresStore(mock).Insert(context.Background(), j)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertConflictLoadsExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	j := job("https://a.example/1", intPtr(70))

	mock.ExpectQuery(`INSERT INTO jobs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT .* FROM jobs WHERE url = \$1`).
		WithArgs(j.URL).
		WillReturnRows(pgxmock.NewRows(pgColumns).
			AddRow(int64(3), "Old", "Acme", j.URL, "remoteok", true, "desc", intPtr(40), strPtr("meh"), "golang", now))

	got, added, err := NewPostgresStore(mock).Insert(context.Background(), j)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, "Old", got.Title)
	assert.Equal(t, 40, *got.MatchScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO jobs`).WillReturnError(errors.New("connection reset"))

	_, _, err = NewPostgresStore(mock).Insert(context.Background(), job("https://a.example/1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert job")
}

func TestPostgres_FindByURLs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	urls := []string{"https://a.example/1", "https://a.example/2"}
	mock.ExpectQuery(`SELECT .* FROM jobs WHERE url = ANY\(\$1\)`).
		WithArgs(urls).
		WillReturnRows(pgxmock.NewRows(pgColumns).
			AddRow(int64(1), "Go Dev", "Acme", urls[0], "programathor", false, "desc", nil, nil, "golang", time.Now()))

	s := NewPostgresStore(mock)
	found, err := s.FindByURLs(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Nil(t, found[urls[0]].MatchScore)

	empty, err := s.FindByURLs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`ORDER BY match_score DESC NULLS LAST, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(DefaultLimit, 5).
		WillReturnRows(pgxmock.NewRows(pgColumns).
			AddRow(int64(2), "Go Dev", "Acme", "https://a.example/2", "remoteok", true, "d", intPtr(90), strPtr("great"), "go", time.Now()).
			AddRow(int64(1), "Go Dev", "Acme", "https://a.example/1", "remoteok", true, "d", intPtr(20), strPtr("weak"), "go", time.Now()))

	s := NewPostgresStore(mock)
	jobs, err := s.List(context.Background(), ListOpts{Sort: "score", Skip: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 90, *jobs[0].MatchScore)

	_, err = s.List(context.Background(), ListOpts{Limit: MaxLimit + 1})
	assert.True(t, errors.Is(err, ErrInvalidListOpts))
	assert.NoError(t, mock.ExpectationsWereMet())
}
