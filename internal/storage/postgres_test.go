package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contact_submissions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sub := testSubmission()
	mock.ExpectExec("INSERT INTO contact_submissions").
		WithArgs(sqlmock.AnyArg(), sub.Name, sub.Email, sub.Message, sub.OriginatingAddress, sub.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db)
	id, err := store.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRejectsOverLongFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sub := testSubmission()
	sub.Message = strings.Repeat("m", MaxMessageLen+1)

	store := NewPostgresStore(db)
	_, err = store.Create(context.Background(), sub)
	require.ErrorIs(t, err, ErrFieldTooLong)

	// Nothing reached the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO contact_submissions").
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresStore(db)
	_, err = store.Create(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create submission")
	assert.NotErrorIs(t, err, ErrFieldTooLong)
}

func TestPostgresRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	newer := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	older := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "message", "originating_address", "created_at"}).
		AddRow("id-2", "Second", "two@example.com", "later", "198.51.100.7", newer).
		AddRow("id-1", "First", "one@example.com", "earlier", "", older)

	mock.ExpectQuery("SELECT id, name, email, message").
		WithArgs(2).
		WillReturnRows(rows)

	store := NewPostgresStore(db)
	subs, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "id-2", subs[0].ID)
	assert.Equal(t, "two@example.com", subs[0].Email)
	assert.Equal(t, newer, subs[0].CreatedAt)
	assert.Equal(t, "id-1", subs[1].ID)
	assert.Empty(t, subs[1].OriginatingAddress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecentDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, email, message").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "message", "originating_address", "created_at"}))

	store := NewPostgresStore(db)
	subs, err := store.Recent(context.Background(), -3)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAvailable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("gone"))

	store := NewPostgresStore(db)
	assert.True(t, store.Available(context.Background()))
	assert.False(t, store.Available(context.Background()))
	assert.Equal(t, "postgres", store.Name())
}
