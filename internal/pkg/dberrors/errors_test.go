package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "courses_course_code_key"})
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, IsDuplicateConstraintError(dup, "courses_course_code_key"))
	assert.True(t, IsDuplicateConstraintError(dup, ""))
	assert.False(t, IsDuplicateConstraintError(dup, "other_key"))
	assert.False(t, IsDuplicateConstraintError(fk, ""))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(dup))

	assert.True(t, IsCheckViolation(check))
	assert.False(t, IsCheckViolation(errors.New("plain")))

	assert.True(t, IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(nil))
}
