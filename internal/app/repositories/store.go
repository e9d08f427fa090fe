package repositories

import (
	"context"
	"fmt"
	"sort"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

// Record is one row of a collection keyed by column name.
type Record map[string]any

// Store is the three-operation contract the import pipeline needs from the
// relational store. A nil or empty Filter matches every record.
type Store interface {
	Select(ctx context.Context, collection string, filter Filter, columns ...string) ([]Record, error)
	Insert(ctx context.Context, collection string, records []Record) error
	Delete(ctx context.Context, collection string, filter Filter) error
}

// Op is a filter comparison operator.
type Op int

// Filter operators
const (
	OpEq Op = iota
	OpIn
)

// Condition restricts a select or delete to records whose column matches.
type Condition struct {
	Column string
	Op     Op
	Value  any
	Values []any
}

// Filter is a conjunction of conditions.
type Filter []Condition

// Eq matches records whose column equals value.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

// In matches records whose column is one of values. An empty list matches nothing.
func In[T any](column string, values []T) Condition {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Condition{Column: column, Op: OpIn, Values: vs}
}

// Where builds a Filter from conditions.
func Where(conds ...Condition) Filter {
	return Filter(conds)
}

// schema describes what a collection accepts and which constraints the
// database enforces on it.
type schema struct {
	columns []string
	unique  [][]string
	// refs maps a foreign-key column to the referenced collection's id.
	refs map[string]string
}

var schemas = map[string]schema{
	models.CollectionInstructors: {
		columns: []string{"id", "name", "faculty", "predominant_method"},
		unique:  [][]string{{"name"}},
	},
	models.CollectionSections: {
		columns: []string{"id", "nrc", "course_code", "title", "section_label", "instructor_id", "program_id", "max_seats", "available_seats"},
		unique:  [][]string{{"program_id", "nrc"}},
		refs:    map[string]string{"instructor_id": models.CollectionInstructors},
	},
	models.CollectionMeetingBlocks: {
		columns: []string{"id", "section_id", "nrc", "day", "start_time", "end_time", "room", "building", "term_id"},
		refs:    map[string]string{"section_id": models.CollectionSections},
	},
}

func lookupSchema(collection string) (schema, error) {
	s, ok := schemas[collection]
	if !ok {
		return schema{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownCollection, collection)
	}
	return s, nil
}

func (s schema) hasColumn(column string) bool {
	for _, c := range s.columns {
		if c == column {
			return true
		}
	}
	return false
}

// checkColumns rejects any column the collection does not declare.
func (s schema) checkColumns(collection string, columns []string) error {
	for _, c := range columns {
		if !s.hasColumn(c) {
			return fmt.Errorf("%w: %s.%s", apperrors.ErrUnknownColumn, collection, c)
		}
	}
	return nil
}

func (s schema) checkFilter(collection string, filter Filter) error {
	for _, cond := range filter {
		if !s.hasColumn(cond.Column) {
			return fmt.Errorf("%w: %s.%s", apperrors.ErrUnknownColumn, collection, cond.Column)
		}
	}
	return nil
}

// recordColumns returns the sorted union of keys across records.
func recordColumns(records []Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
