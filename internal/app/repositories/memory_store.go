package repositories

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

// MemoryStore is an in-process Store that enforces the same unique and
// foreign-key constraints as the Postgres schema. It backs dry runs and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]Record
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]Record)}
}

// Select returns copies of the matching records, in insertion order.
func (s *MemoryStore) Select(_ context.Context, collection string, filter Filter, columns ...string) ([]Record, error) {
	sch, err := lookupSchema(collection)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = sch.columns
	}
	if err := sch.checkColumns(collection, columns); err != nil {
		return nil, err
	}
	if err := sch.checkFilter(collection, filter); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.data[collection] {
		if !matches(rec, filter) {
			continue
		}
		cp := make(Record, len(columns))
		for _, c := range columns {
			cp[c] = rec[c]
		}
		out = append(out, cp)
	}
	return out, nil
}

// Insert validates every record before writing any of them, so a failing
// call leaves the collection untouched.
func (s *MemoryStore) Insert(_ context.Context, collection string, records []Record) error {
	sch, err := lookupSchema(collection)
	if err != nil {
		return err
	}
	if err := sch.checkColumns(collection, recordColumns(records)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[collection]
	staged := make([]Record, 0, len(records))
	for _, rec := range records {
		cp := make(Record, len(sch.columns))
		for _, c := range sch.columns {
			cp[c] = rec[c]
		}
		if id, ok := cp["id"].(uuid.UUID); !ok || id == uuid.Nil {
			cp["id"] = uuid.New()
		}

		for col, target := range sch.refs {
			if !s.hasID(target, cp[col]) {
				return apperrors.NewStoreError("insert", collection,
					fmt.Errorf("%w: %s.%s=%v not present in %s", apperrors.ErrForeignKeyViolation, collection, col, cp[col], target))
			}
		}

		for _, key := range sch.unique {
			if conflict(key, cp, existing) || conflict(key, cp, staged) {
				return apperrors.NewStoreError("insert", collection,
					fmt.Errorf("%w: %s(%s)", apperrors.ErrDuplicateKey, collection, strings.Join(key, ",")))
			}
		}
		staged = append(staged, cp)
	}

	s.data[collection] = append(existing, staged...)
	return nil
}

// Delete removes matching records, refusing when another collection still
// references one of them.
func (s *MemoryStore) Delete(_ context.Context, collection string, filter Filter) error {
	sch, err := lookupSchema(collection)
	if err != nil {
		return err
	}
	if err := sch.checkFilter(collection, filter); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var keep []Record
	doomed := make(map[any]struct{})
	for _, rec := range s.data[collection] {
		if matches(rec, filter) {
			doomed[rec["id"]] = struct{}{}
			continue
		}
		keep = append(keep, rec)
	}

	for child, childSchema := range schemas {
		for col, target := range childSchema.refs {
			if target != collection {
				continue
			}
			for _, rec := range s.data[child] {
				if _, hit := doomed[rec[col]]; hit {
					return apperrors.NewStoreError("delete", collection,
						fmt.Errorf("%w: %s still referenced by %s.%s", apperrors.ErrForeignKeyViolation, collection, child, col))
				}
			}
		}
	}

	s.data[collection] = keep
	return nil
}

// Len returns the number of records in collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[collection])
}

func (s *MemoryStore) hasID(collection string, id any) bool {
	for _, rec := range s.data[collection] {
		if equalValues(rec["id"], id) {
			return true
		}
	}
	return false
}

func conflict(key []string, rec Record, others []Record) bool {
	for _, o := range others {
		same := true
		for _, c := range key {
			if !equalValues(rec[c], o[c]) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func matches(rec Record, filter Filter) bool {
	for _, cond := range filter {
		v := rec[cond.Column]
		switch cond.Op {
		case OpIn:
			found := false
			for _, want := range cond.Values {
				if equalValues(v, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if !equalValues(v, cond.Value) {
				return false
			}
		}
	}
	return true
}

// equalValues compares two column values, treating named string types
// (models.Term, models.Weekday) as plain strings.
func equalValues(a, b any) bool {
	return reflect.DeepEqual(plain(a), plain(b))
}

func plain(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return plain(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}
