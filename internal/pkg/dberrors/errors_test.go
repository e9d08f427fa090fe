package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert sections: %w", &pgconn.PgError{Code: "23505", ConstraintName: "sections_program_nrc_key"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "sections_program_nrc_key"))
	assert.False(t, IsUniqueViolation(err, "instructors_name_key"))
	assert.False(t, IsUniqueViolation(errors.New("unique"), ""))
	assert.False(t, IsForeignKeyViolation(err))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	plain := errors.New("connection reset by peer")
	assert.Same(t, plain, Classify(plain))

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "instructors_name_key"}
	err := Classify(dup)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
	assert.ErrorAs(t, err, new(*pgconn.PgError))
	assert.Contains(t, err.Error(), "instructors_name_key")

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "meeting_blocks_section_id_fkey"}
	assert.True(t, IsForeignKeyViolation(fk))
	assert.ErrorIs(t, Classify(fk), apperrors.ErrForeignKeyViolation)

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), Classify(other))
}
