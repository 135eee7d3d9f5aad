package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/hana-backend/pkg/dbcapabilities"
)

func TestIntegrityErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("sql error 301")
	err := NewIntegrityError(dbcapabilities.HANA, 301, cause)

	assert.True(t, errors.Is(err, ErrIntegrityViolation))
	assert.True(t, IsIntegrityError(err))
	assert.ErrorIs(t, err, cause)

	var intErr *IntegrityError
	require.ErrorAs(t, err, &intErr)
	assert.Equal(t, 301, intErr.Code)
}

func TestIntegrityErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("saving row: %w", NewIntegrityError(dbcapabilities.HANA, 301, errors.New("dup")))
	assert.True(t, IsIntegrityError(err))
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectionError(dbcapabilities.HANA, "db.example.com", 30015, cause)

	assert.True(t, IsConnectionError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db.example.com:30015")
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError(dbcapabilities.HANA, "host", "value is required")

	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "host")

	// Configuration errors are not connection or integrity errors.
	assert.False(t, IsConnectionError(err))
	assert.False(t, IsIntegrityError(err))
}

func TestTransactionManagementError(t *testing.T) {
	err := NewTransactionManagementError("block ended with pending work")
	assert.True(t, IsTransactionManagementError(err))
	assert.Contains(t, err.Error(), "pending work")
}

func TestUnsupportedOperationError(t *testing.T) {
	err := NewUnsupportedOperationError(dbcapabilities.HANA, "savepoint", "savepoints are not supported")
	assert.True(t, IsUnsupported(err))
	assert.Contains(t, err.Error(), "savepoint")
}

func TestWrapErrorDoesNotDoubleWrap(t *testing.T) {
	inner := NewDatabaseError(dbcapabilities.HANA, "execute", errors.New("boom"))
	wrapped := WrapError(dbcapabilities.HANA, "outer", inner)
	assert.Same(t, error(inner), wrapped)

	integrity := NewIntegrityError(dbcapabilities.HANA, 301, errors.New("dup"))
	wrapped = WrapError(dbcapabilities.HANA, "outer", integrity)
	assert.Same(t, error(integrity), wrapped)
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError(dbcapabilities.HANA, "execute", nil))
}

func TestDatabaseErrorContext(t *testing.T) {
	err := NewDatabaseError(dbcapabilities.HANA, "execute", errors.New("boom")).
		WithContext("table", "orders")

	assert.Contains(t, err.Error(), "execute")
	assert.Contains(t, err.Error(), "orders")
}

func TestValidateRequiresAllFields(t *testing.T) {
	cfg := ConnectionConfig{
		Host:       "h",
		Port:       30015,
		Username:   "u",
		Password:   "p",
		SchemaName: "s",
	}
	require.NoError(t, cfg.Validate())

	cfg.SchemaName = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
