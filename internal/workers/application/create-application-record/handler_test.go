// internal/workers/application/create-application-record/handler_test.go
package createapplicationrecord

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"
	"ascend-intake/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: time.Second}
}

func createTestInput() *Input {
	return &Input{
		Application: models.NewApplication{
			FullName:        "Jo",
			Email:           "jo@x.com",
			Goal:            "strength_performance",
			ExperienceLevel: "advanced",
			CommitmentLevel: "high",
		},
	}
}

// Create a test logger that implements the logger.Logger interface
type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type failingStore struct {
	repository.ApplicationStore
	err   error
	calls int
}

func (s *failingStore) Create(ctx context.Context, app models.NewApplication) (*models.Application, error) {
	s.calls++
	return nil, s.err
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO applications`).
		WithArgs(
			sqlmock.AnyArg(), // application ID (UUID)
			"Jo",
			"jo@x.com",
			nil,
			"strength_performance",
			"advanced",
			"high",
			"",
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	handler := NewHandler(createTestConfig(), repository.NewApplicationRepository(db), newTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	require.NotNil(t, output.Application)
	assert.NotEmpty(t, output.Application.ID)
	assert.Equal(t, createdAt, output.Application.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO applications`).
		WillReturnError(errors.New("database connection failed"))

	handler := NewHandler(createTestConfig(), repository.NewApplicationRepository(db), newTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Nil(t, output)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseInsertFailed))

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CallsStoreExactlyOnce(t *testing.T) {
	store := &failingStore{err: errors.New("boom")}
	handler := NewHandler(createTestConfig(), store, newTestLogger(t))

	_, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestHandler_Execute_MemoryStore(t *testing.T) {
	store := repository.NewMemoryApplicationRepository()
	handler := NewHandler(LoadConfig(), store, newTestLogger(t))

	first, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.Application.ID, second.Application.ID)

	apps, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}
