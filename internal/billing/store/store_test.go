package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func TestInMemoryStore_MarkOnce(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, err := s.MarkProcessed(ctx, "evt_1", "invoice.paid", now)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.MarkProcessed(ctx, "evt_1", "invoice.paid", now)
	require.NoError(t, err)
	assert.False(t, first)

	require.NoError(t, s.Forget(ctx, "evt_1"))
	first, err = s.MarkProcessed(ctx, "evt_1", "invoice.paid", now)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestPostgresStore_MarkProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO billing_events")).
		WithArgs("evt_1", "checkout.completed", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO billing_events")).
		WithArgs("evt_1", "checkout.completed", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPostgres(db)
	first, err := s.MarkProcessed(context.Background(), "evt_1", "checkout.completed", now)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.MarkProcessed(context.Background(), "evt_1", "checkout.completed", now)
	require.NoError(t, err)
	assert.False(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Forget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM billing_events WHERE event_id = $1")).
		WithArgs("evt_9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Forget(context.Background(), "evt_9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
