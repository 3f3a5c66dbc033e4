package jobstore

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// errorDetails flattens a Postgres error's fields into the key/value map
// errors.Details attaches to a wrapped error, matching the teacher's
// internal/store/pgx.go ErrorDetails.
func errorDetails(e *pgconn.PgError) map[string]interface{} {
	details := map[string]interface{}{}
	if e.Severity != "" {
		details["severity"] = e.Severity
	}
	if e.Code != "" {
		details["code"] = e.Code
	}
	if e.Message != "" {
		details[zerolog.MessageFieldName] = e.Message
	}
	if e.Detail != "" {
		details["details"] = e.Detail
	}
	if e.Hint != "" {
		details["hint"] = e.Hint
	}
	if e.ConstraintName != "" {
		details["constraintName"] = e.ConstraintName
	}
	if e.TableName != "" {
		details["tableName"] = e.TableName
	}
	return details
}

// withPgxError wraps err, attaching a Postgres error's diagnostic fields
// when present.
func withPgxError(err error) errors.E {
	errE := errors.WithStack(err)
	var e *pgconn.PgError
	if errors.As(err, &e) {
		details := errors.Details(errE)
		for key, value := range errorDetails(e) {
			details[key] = value
		}
	}
	return errE
}
