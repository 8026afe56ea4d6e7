package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdder struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1700000000000-0", f.err)
}

func TestRedisSink_Write(t *testing.T) {
	adder := &fakeAdder{}
	s := NewRedisSink(adder, "gophauth:thoughts")

	err := s.Write(context.Background(), &models.Thought{ID: "t-1", Username: "alice", Thought: "logged in"})
	require.NoError(t, err)

	require.NotNil(t, adder.args)
	assert.Equal(t, "gophauth:thoughts", adder.args.Stream)
	assert.True(t, adder.args.Approx)
	assert.Equal(t, map[string]any{"id": "t-1", "username": "alice", "thought": "logged in"}, adder.args.Values)
	assert.Equal(t, "redis", s.Name())
}

func TestRedisSink_WriteError(t *testing.T) {
	s := NewRedisSink(&fakeAdder{err: errors.New("READONLY")}, "audit")

	err := s.Write(context.Background(), &models.Thought{Username: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis xadd audit: READONLY")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "127.0.0.1:1", "")
	require.Error(t, err)
}

func TestPostgresSink_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO thoughts`).
		WithArgs("t-1", "alice", "logged in").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	s := NewPostgresSink(db, repomanager.NewPostgresRepositoryManager())
	require.NoError(t, s.Write(context.Background(), &models.Thought{ID: "t-1", Username: "alice", Thought: "logged in"}))
	assert.Equal(t, "postgres", s.Name())
	require.NoError(t, mock.ExpectationsWereMet())
}
