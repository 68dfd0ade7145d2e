package guestquota

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quotaColumns = []string{"ip_key", "used", "window_start", "last_used_at"}

func TestPostgresStore_ConsumeAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO guest_quota")).
		WithArgs("k", now, 3, now.Add(-24*time.Hour)).
		WillReturnRows(sqlmock.NewRows(quotaColumns).AddRow("k", 2, now.Add(-time.Hour), now))

	row, allowed, err := NewPostgres(db).Consume(context.Background(), "k", 3, 24*time.Hour, now)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, row.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ConsumeDeniedReadsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO guest_quota")).
		WillReturnRows(sqlmock.NewRows(quotaColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ip_key, used, window_start, last_used_at FROM guest_quota WHERE ip_key = $1")).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows(quotaColumns).AddRow("k", 3, start, start))

	row, allowed, err := NewPostgres(db).Consume(context.Background(), "k", 3, 24*time.Hour, now)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 3, row.Used)
	assert.Equal(t, start, row.WindowStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ConsumeError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO guest_quota")).
		WillReturnError(errors.New("connection reset"))

	_, _, err = NewPostgres(db).Consume(context.Background(), "k", 3, time.Hour, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consume guest quota")
}

func TestPostgresStore_ReleaseMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE guest_quota SET used = GREATEST(used - 1, 0)")).
		WithArgs("k").
		WillReturnError(sql.ErrNoRows)

	row, err := NewPostgres(db).Release(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM guest_quota WHERE window_start <= $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewPostgres(db).DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM guest_quota")).
		WillReturnRows(sqlmock.NewRows(quotaColumns).
			AddRow("a", 1, now, now).
			AddRow("b", 3, now.Add(-time.Hour), now.Add(-time.Hour)))

	rows, err := NewPostgres(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].IPKey)
}
