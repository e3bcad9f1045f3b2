package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/ponyo877/swapdesk/server/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rp, err := NewRepository(db)
	require.NoError(t, err)
	return rp, mock
}

func TestGetSession_Found(t *testing.T) {
	rp, mock := newMockRepository(t)

	session := domain.NewSession()
	session.Bind("alice")
	session.Select(domain.RoleX, domain.Asset{ContractAddress: "0xc1", TokenID: "1"})
	value, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM sessions WHERE key = ?")).
		WithArgs("session-ab12cd").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(string(value)))

	got, err := rp.GetSession(context.Background(), "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, session, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSession_Miss(t *testing.T) {
	rp, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM sessions WHERE key = ?")).
		WithArgs("session-nope").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := rp.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSession_CorruptValue(t *testing.T) {
	rp, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM sessions WHERE key = ?")).
		WithArgs("session-bad").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("{broken"))

	_, err := rp.GetSession(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrSessionNotFound)
}

func TestPutSession_Upsert(t *testing.T) {
	rp, mock := newMockRepository(t)

	session := domain.NewSession()
	value, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (key, value, created_at) VALUES (?, ?, ?)")).
		WithArgs("session-ab12cd", string(value), session.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, rp.PutSession(context.Background(), "ab12cd", session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSessionsBefore(t *testing.T) {
	rp, mock := newMockRepository(t)

	cutoff := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE created_at < ?")).
		WithArgs(cutoff.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := rp.DeleteSessionsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
