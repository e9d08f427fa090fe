package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

func seedInstructor(t *testing.T, s *MemoryStore, name string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, models.CollectionInstructors, []Record{{"name": name, "faculty": "FCC"}}))
	recs, err := s.Select(ctx, models.CollectionInstructors, Where(Eq("name", name)), "id")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]["id"].(uuid.UUID)
}

func TestMemoryStore_InsertAssignsIDsAndSelectFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, models.CollectionInstructors, []Record{
		{"name": "Jane Doe", "faculty": "FCC"},
		{"name": "John Roe", "faculty": "FCC"},
	}))

	all, err := s.Select(ctx, models.CollectionInstructors, nil, "id", "name")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, r := range all {
		assert.NotEqual(t, uuid.Nil, r["id"])
	}

	some, err := s.Select(ctx, models.CollectionInstructors, Where(In("name", []string{"John Roe", "Nobody"})))
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "John Roe", some[0]["name"])

	none, err := s.Select(ctx, models.CollectionInstructors, Where(In("name", []string{})))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_UniqueViolationLeavesCollectionUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedInstructor(t, s, "Jane Doe")

	err := s.Insert(ctx, models.CollectionInstructors, []Record{
		{"name": "New Person", "faculty": "FCC"},
		{"name": "Jane Doe", "faculty": "FCC"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreOperation)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
	assert.Equal(t, 1, s.Len(models.CollectionInstructors))
}

func TestMemoryStore_SectionUniquePerProgram(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	prof := seedInstructor(t, s, "Jane Doe")

	sec := func(program string) Record {
		return Record{"nrc": "12345", "course_code": "COMP 101", "title": "Intro", "section_label": "A", "instructor_id": prof, "program_id": program}
	}
	require.NoError(t, s.Insert(ctx, models.CollectionSections, []Record{sec("ICC"), sec("ITI")}))
	err := s.Insert(ctx, models.CollectionSections, []Record{sec("ICC")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
}

func TestMemoryStore_ForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Insert(ctx, models.CollectionSections, []Record{{"nrc": "1", "instructor_id": uuid.New(), "program_id": "ICC"}})
	assert.ErrorIs(t, err, apperrors.ErrForeignKeyViolation)

	prof := seedInstructor(t, s, "Jane Doe")
	require.NoError(t, s.Insert(ctx, models.CollectionSections, []Record{{"nrc": "1", "instructor_id": prof, "program_id": "ICC"}}))

	// parent cannot go while a child still points at it
	err = s.Delete(ctx, models.CollectionInstructors, nil)
	assert.ErrorIs(t, err, apperrors.ErrForeignKeyViolation)
	assert.Equal(t, 1, s.Len(models.CollectionInstructors))

	require.NoError(t, s.Delete(ctx, models.CollectionSections, Where(Eq("program_id", "ICC"))))
	require.NoError(t, s.Delete(ctx, models.CollectionInstructors, nil))
	assert.Zero(t, s.Len(models.CollectionInstructors))
}

func TestMemoryStore_NamedStringTypesCompareAsStrings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	prof := seedInstructor(t, s, "Jane Doe")
	require.NoError(t, s.Insert(ctx, models.CollectionSections, []Record{{"nrc": "1", "instructor_id": prof, "program_id": "ICC"}}))
	secs, err := s.Select(ctx, models.CollectionSections, nil, "id")
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, models.CollectionMeetingBlocks, []Record{
		{"section_id": secs[0]["id"], "nrc": "1", "day": "lunes", "term_id": "PA2026"},
	}))

	got, err := s.Select(ctx, models.CollectionMeetingBlocks, Where(Eq("term_id", models.Term("PA2026"))))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStore_RejectsUnknownCollectionAndColumn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Select(ctx, "students", nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCollection)

	err = s.Insert(ctx, models.CollectionInstructors, []Record{{"name": "x", "email": "x@y"}})
	assert.ErrorIs(t, err, apperrors.ErrUnknownColumn)

	err = s.Delete(ctx, models.CollectionInstructors, Where(Eq("email", "x@y")))
	assert.ErrorIs(t, err, apperrors.ErrUnknownColumn)
}
