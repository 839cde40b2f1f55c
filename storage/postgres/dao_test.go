package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/storage/postgres"
	"github.com/zefrenchwan/egonet.git/storage/storagetest"
	"go.uber.org/zap/zaptest"
)

// TEST_DB_URL_VARIABLE is the env variable with the url of a test database
const TEST_DB_URL_VARIABLE = "EGONET_TEST_DB_URL"

func TestPostgresStore(t *testing.T) {
	url := os.Getenv(TEST_DB_URL_VARIABLE)
	if url == "" {
		t.Skip("no test database, set " + TEST_DB_URL_VARIABLE)
	}

	storagetest.Run(t, func(t *testing.T) storage.Store {
		ctx := context.Background()
		dao, err := postgres.NewDao(ctx, url)
		require.NoError(t, err)
		require.NoError(t, dao.Migrate(ctx, zaptest.NewLogger(t).Sugar()))
		require.NoError(t, dao.Reset(ctx))
		return dao
	})
}

func TestFindCodeInPSQLException(t *testing.T) {
	source := errors.Wrap(&pgconn.PgError{Code: postgres.SERIALIZATION_CODE}, "commit")
	assert.Equal(t, postgres.SERIALIZATION_CODE, postgres.FindCodeInPSQLException(source))
	assert.True(t, postgres.IsSerializationFailure(source))
	assert.Equal(t, "", postgres.FindCodeInPSQLException(errors.New("other")))
}

func TestRetryOnSerializationFailure(t *testing.T) {
	conflict := errors.Wrap(&pgconn.PgError{Code: postgres.SERIALIZATION_CODE}, "commit")

	calls := 0
	err := postgres.RetryOnSerializationFailure(3, func() error {
		calls++
		if calls < 3 {
			return conflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = postgres.RetryOnSerializationFailure(2, func() error {
		calls++
		return conflict
	})
	assert.Equal(t, 2, calls)
	assert.True(t, postgres.IsSerializationFailure(err))

	calls = 0
	duplicate := &pgconn.PgError{Code: postgres.DUPLICATE_CODE}
	err = postgres.RetryOnSerializationFailure(3, func() error {
		calls++
		return duplicate
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, postgres.DUPLICATE_CODE, postgres.FindCodeInPSQLException(err))
}
