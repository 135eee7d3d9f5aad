package adapter

import (
	"errors"
	"fmt"

	"github.com/redbco/hana-backend/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrConnectionClosed is returned when attempting to use a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIntegrityViolation is returned when the database reports a constraint violation
	ErrIntegrityViolation = errors.New("integrity constraint violation")

	// ErrTransactionManagement is returned when a managed transaction block is
	// entered or left in an inconsistent state
	ErrTransactionManagement = errors.New("transaction management error")

	// ErrOperationNotSupported is returned when an operation is not supported by the database
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrInvalidData is returned when caller-supplied data cannot be used
	ErrInvalidData = errors.New("invalid data")
)

// DatabaseError wraps database-specific errors with additional context.
// It is the catch-all kind: any driver failure that is not a constraint
// violation surfaces as a DatabaseError.
type DatabaseError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
	Context      map[string]interface{}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.DatabaseType, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error.
func (e *DatabaseError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(dbType dbcapabilities.DatabaseID, operation string, cause error) *DatabaseError {
	return &DatabaseError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
		Context:      make(map[string]interface{}),
	}
}

// WithContext adds context to a DatabaseError.
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IntegrityError reports a constraint violation. It is distinguished from
// DatabaseError so that callers can treat data-validation failures
// differently from operational failures. Code carries the driver's numeric
// error code; the original driver error stays reachable through Unwrap.
type IntegrityError struct {
	DatabaseType dbcapabilities.DatabaseID
	Code         int
	Cause        error
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("[%s] integrity constraint violation (code %d): %v", e.DatabaseType, e.Code, e.Cause)
}

// Unwrap returns the underlying driver error.
func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrIntegrityViolation.
func (e *IntegrityError) Is(target error) bool {
	if errors.Is(target, ErrIntegrityViolation) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewIntegrityError creates a new IntegrityError.
func NewIntegrityError(dbType dbcapabilities.DatabaseID, code int, cause error) *IntegrityError {
	return &IntegrityError{
		DatabaseType: dbType,
		Code:         code,
		Cause:        cause,
	}
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Host         string
	Port         int
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s:%d: %v", e.DatabaseType, e.Host, e.Port, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseID, host string, port int, cause error) *ConnectionError {
	return &ConnectionError{
		DatabaseType: dbType,
		Host:         host,
		Port:         port,
		Cause:        cause,
	}
}

// ConfigurationError is returned when a required connection parameter is
// missing or invalid. It is detected before any network activity.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfiguration)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseID, field string, reason string) *ConfigurationError {
	return &ConfigurationError{
		DatabaseType: dbType,
		Field:        field,
		Reason:       reason,
	}
}

// TransactionManagementError is raised when leaving a managed transaction
// block with unresolved pending writes, or when transaction management calls
// are unbalanced.
type TransactionManagementError struct {
	Reason string
}

// Error implements the error interface.
func (e *TransactionManagementError) Error() string {
	return "transaction management error: " + e.Reason
}

// Is checks if the error is ErrTransactionManagement.
func (e *TransactionManagementError) Is(target error) bool {
	return errors.Is(target, ErrTransactionManagement)
}

// NewTransactionManagementError creates a new TransactionManagementError.
func NewTransactionManagementError(reason string) *TransactionManagementError {
	return &TransactionManagementError{Reason: reason}
}

// UnsupportedOperationError is returned when an operation is not supported.
type UnsupportedOperationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Reason       string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.DatabaseType, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrOperationNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return errors.Is(target, ErrOperationNotSupported)
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(dbType dbcapabilities.DatabaseID, operation string, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// WrapError wraps an error with database context.
// If the error is already one of the adapter error kinds, it returns it as-is.
func WrapError(dbType dbcapabilities.DatabaseID, operation string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	var intErr *IntegrityError
	if errors.As(err, &intErr) {
		return err
	}

	return NewDatabaseError(dbType, operation, err)
}

// IsIntegrityError checks if an error indicates a constraint violation.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrityViolation)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsTransactionManagementError checks if an error is a transaction management error.
func IsTransactionManagementError(err error) bool {
	return errors.Is(err, ErrTransactionManagement)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}
