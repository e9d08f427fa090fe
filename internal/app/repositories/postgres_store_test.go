package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

func newTestPostgresStore() *PostgresStore {
	return NewPostgresStore(nil, zerolog.Nop())
}

func TestBuildSelect(t *testing.T) {
	s := newTestPostgresStore()

	sql, args, err := s.buildSelect(models.CollectionSections,
		Where(Eq("program_id", "ICC"), In("nrc", []string{"1", "2"})), []string{"id", "nrc"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, nrc FROM sections WHERE (program_id = $1 AND nrc IN ($2,$3))", sql)
	assert.Equal(t, []any{"ICC", "1", "2"}, args)
}

func TestBuildSelect_TimeColumnsAsText(t *testing.T) {
	s := newTestPostgresStore()

	sql, _, err := s.buildSelect(models.CollectionMeetingBlocks, nil, []string{"start_time", "end_time"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT start_time::text AS start_time, end_time::text AS end_time FROM meeting_blocks", sql)
}

func TestBuildSelect_EmptyInMatchesNothing(t *testing.T) {
	s := newTestPostgresStore()

	sql, args, err := s.buildSelect(models.CollectionInstructors, Where(In("name", []string{})), []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM instructors WHERE ((1=0))", sql)
	assert.Empty(t, args)
}

func TestBuildInsert_MultiRowWithSortedColumns(t *testing.T) {
	s := newTestPostgresStore()

	sql, args, err := s.buildInsert(models.CollectionInstructors, []Record{
		{"name": "A", "faculty": "F"},
		{"name": "B", "faculty": "F", "predominant_method": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO instructors (faculty,name,predominant_method) VALUES ($1,$2,$3),($4,$5,$6)", sql)
	assert.Equal(t, []any{"F", "A", nil, "F", "B", nil}, args)
}

func TestBuildDelete(t *testing.T) {
	s := newTestPostgresStore()

	sql, args, err := s.buildDelete(models.CollectionMeetingBlocks, nil)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM meeting_blocks", sql)
	assert.Empty(t, args)

	sql, args, err = s.buildDelete(models.CollectionMeetingBlocks, Where(Eq("term_id", "PA2026")))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM meeting_blocks WHERE (term_id = $1)", sql)
	assert.Equal(t, []any{"PA2026"}, args)
}

func TestBuildRejectsUnknownNames(t *testing.T) {
	s := newTestPostgresStore()

	_, _, err := s.buildSelect("users", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCollection)

	_, _, err = s.buildInsert(models.CollectionSections, []Record{{"nrc": "1", "password": "x"}})
	assert.ErrorIs(t, err, apperrors.ErrUnknownColumn)

	_, _, err = s.buildDelete(models.CollectionSections, Where(Eq("1=1; DROP TABLE sections; --", 1)))
	assert.ErrorIs(t, err, apperrors.ErrUnknownColumn)
}

func TestNormalizeValue(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, normalizeValue([16]byte(id)))
	assert.Equal(t, id, normalizeValue(pgtype.UUID{Bytes: id, Valid: true}))
	assert.Nil(t, normalizeValue(pgtype.UUID{}))
	assert.Equal(t, 40, normalizeValue(int32(40)))
	assert.Equal(t, "B-12", normalizeValue("B-12"))
}
