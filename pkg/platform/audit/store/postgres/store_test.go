package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atelier/pkg/domain"
	audit "atelier/pkg/platform/audit"
	txcontext "atelier/pkg/platform/tx"
)

func TestStore_AppendDerivesCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := id.UserID(uuid.New())
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs(sqlmock.AnyArg(), "security", ts, sqlmock.AnyArg(), "ipk", "guest_quota_exceeded",
			"denied", "", 0, "req-1", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = New(db).Append(context.Background(), audit.Event{
		Timestamp: ts,
		UserID:    userID,
		Subject:   "ipk",
		Action:    string(audit.EventGuestQuotaExceeded),
		Decision:  "denied",
		RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AppendUsesContextTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)

	require.NoError(t, New(db).Append(ctx, audit.Event{Action: string(audit.EventArchiveSaved)}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := id.UserID(uuid.New())
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"category", "occurred_at", "user_id", "subject", "action", "decision", "reason", "amount", "request_id", "actor_id"}).
		AddRow("operations", ts, uuid.UUID(userID).String(), "img", "archive_saved", "", "", 0, "req", "").
		AddRow("compliance", ts, nil, "", "credits_granted", "", "admin", 25, "", "admin")

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_events")).
		WithArgs(uuid.UUID(userID)).
		WillReturnRows(rows)

	events, err := New(db).ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, userID, events[0].UserID)
	assert.Equal(t, audit.CategoryCompliance, events[1].Category)
	assert.True(t, events[1].UserID.IsNil())
	assert.Equal(t, 25, events[1].Amount)
}

func TestStore_ListRecentQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_events")).
		WithArgs(10).
		WillReturnError(errors.New("boom"))

	_, err = New(db).ListRecent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query audit events")
}
