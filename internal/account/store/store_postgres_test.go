package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/account/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

var cols = []string{"user_id", "email", "tier", "subscription_status", "current_period_end", "created_at", "updated_at"}

func TestPostgresStore_CreateIfAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	user := uuid.New()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(user.String(), "a@example.com", "free", "none", nil, now, now))

	p, created, err := NewPostgres(db).CreateIfAbsent(context.Background(), &models.Profile{
		UserID: id.UserID(user), Email: "a@example.com", Tier: id.TierFree, SubscriptionStatus: models.StatusNone,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id.TierFree, p.Tier)
	assert.Nil(t, p.CurrentPeriodEnd)
}

func TestPostgresStore_CreateIfAbsentExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	user := uuid.New()
	now := time.Now()
	end := now.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id = $1")).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(user.String(), "a@example.com", "studio", "active", end, now, now))

	p, created, err := NewPostgres(db).CreateIfAbsent(context.Background(), &models.Profile{UserID: id.UserID(user)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id.TierStudio, p.Tier)
	require.NotNil(t, p.CurrentPeriodEnd)
	assert.Equal(t, end, *p.CurrentPeriodEnd)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles")).WillReturnRows(sqlmock.NewRows(cols))
	_, err = NewPostgres(db).Get(context.Background(), id.UserID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_UpdateSubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	user := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles")).
		WithArgs(user, "starter", "active", nil, now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(user.String(), "", "starter", "active", nil, now, now))

	p, err := NewPostgres(db).UpdateSubscription(context.Background(), id.UserID(user),
		models.Subscription{Tier: id.TierStarter, Status: models.StatusActive}, now)
	require.NoError(t, err)
	assert.Equal(t, id.TierStarter, p.Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}
