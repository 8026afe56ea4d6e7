package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery = `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*username,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at\s*$`
	selectQuery = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*created_at\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func alice() *models.Account {
	return &models.Account{ID: "0b6f4a6e-8d59-4a4e-9c43-5f0f8e3a0c11", Username: "alice", Email: "a@x.com", PasswordHash: "$argon2id$hash"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a := alice()
	mock.ExpectQuery(insertQuery).
		WithArgs(a.ID, "alice", "a@x.com", "$argon2id$hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, "alice", got.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{
			Code:    pgerrcode.UniqueViolation,
			Message: `duplicate key value violates unique constraint "accounts_email_key"`,
		})

	_, err := repo.Create(context.Background(), alice())
	require.ErrorIs(t, err, common.ErrorDuplicateEmail)
	assert.Contains(t, err.Error(), "accounts_email_key")
}

func TestCreate_OtherPgErrorIsNotDuplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation, Message: "check failed"})

	_, err := repo.Create(context.Background(), alice())
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorDuplicateEmail))
	assert.Regexp(t, regexp.MustCompile(`db error: .*check failed`), err.Error())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), alice())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_InvalidRecordNeverReachesStore(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	a := alice()
	a.Email = ""

	_, err := repo.Create(context.Background(), a)
	require.ErrorIs(t, err, common.ErrorEmailRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Now().UTC()

	mock.ExpectQuery(selectQuery).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow("u-1", "alice", "a@x.com", "$argon2id$hash", created))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, &models.Account{ID: "u-1", Username: "alice", Email: "a@x.com", PasswordHash: "$argon2id$hash", CreatedAt: created}, got)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("a@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
