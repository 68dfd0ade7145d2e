package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var sawTx bool
	err = Run(context.Background(), db, func(ctx context.Context) error {
		_, sawTx = From(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sawTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("insufficient")
	err = Run(context.Background(), db, func(context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ReusesExistingTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := WithTx(context.Background(), tx)

	calls := 0
	err = Run(ctx, db, func(inner context.Context) error {
		calls++
		got, ok := From(inner)
		assert.True(t, ok)
		assert.Same(t, tx, got)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunner_Commits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var runner Runner = SQLRunner{DB: db}
	err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := From(ctx)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopRunner(t *testing.T) {
	called := false
	err := NopRunner{}.RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := From(ctx)
		assert.False(t, ok)
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
