package serving_test

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/serving"
	"github.com/zefrenchwan/egonet.git/storage/postgres"
)

func TestBuildApiErrorFromStoreError(t *testing.T) {
	assert.NoError(t, serving.BuildApiErrorFromStoreError(nil))

	expected := map[string]int{
		postgres.SERIALIZATION_CODE: http.StatusConflict,
		postgres.DUPLICATE_CODE:     http.StatusConflict,
		postgres.AUTH_CODE:          http.StatusUnauthorized,
		postgres.RESOURCE_CODE:      http.StatusNotFound,
		postgres.INCONSISTENCY_CODE: http.StatusForbidden,
		"XX000":                     http.StatusInternalServerError,
	}

	for code, status := range expected {
		source := errors.Wrap(&pgconn.PgError{Code: code}, "insert")
		var httpError serving.ServiceHttpError
		require.True(t, errors.As(serving.BuildApiErrorFromStoreError(source), &httpError), code)
		assert.Equal(t, status, httpError.HttpCode(), code)
	}
}
