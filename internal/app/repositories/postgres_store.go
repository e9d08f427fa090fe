package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/yigit/horario/internal/pkg/apperrors"
	"github.com/yigit/horario/internal/pkg/dberrors"
)

// querier is the subset of pgxpool.Pool the store uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	db  querier
	sb  squirrel.StatementBuilderType
	log zerolog.Logger
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db querier, lgr zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		log: lgr,
	}
}

// Select returns the records of collection matching filter. With no columns
// every declared column is returned.
func (s *PostgresStore) Select(ctx context.Context, collection string, filter Filter, columns ...string) ([]Record, error) {
	sql, args, err := s.buildSelect(collection, filter, columns)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("Error executing select query")
		return nil, apperrors.NewStoreError("select", collection, dberrors.Classify(err))
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, apperrors.NewStoreError("select", collection, err)
		}
		fields := rows.FieldDescriptions()
		rec := make(Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = normalizeValue(values[i])
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("Error iterating rows")
		return nil, apperrors.NewStoreError("select", collection, err)
	}

	return records, nil
}

// Insert writes all records in one statement.
func (s *PostgresStore) Insert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	sql, args, err := s.buildInsert(collection, records)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		s.log.Error().Err(err).Str("collection", collection).Int("records", len(records)).Msg("Error executing insert query")
		return apperrors.NewStoreError("insert", collection, dberrors.Classify(err))
	}
	return nil
}

// Delete removes the records of collection matching filter.
func (s *PostgresStore) Delete(ctx context.Context, collection string, filter Filter) error {
	sql, args, err := s.buildDelete(collection, filter)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("Error executing delete query")
		return apperrors.NewStoreError("delete", collection, dberrors.Classify(err))
	}

	s.log.Debug().Str("collection", collection).Int64("rows", tag.RowsAffected()).Msg("Deleted records")
	return nil
}

func (s *PostgresStore) buildSelect(collection string, filter Filter, columns []string) (string, []any, error) {
	sch, err := lookupSchema(collection)
	if err != nil {
		return "", nil, err
	}
	if len(columns) == 0 {
		columns = sch.columns
	}
	if err := sch.checkColumns(collection, columns); err != nil {
		return "", nil, err
	}
	if err := sch.checkFilter(collection, filter); err != nil {
		return "", nil, err
	}

	// TIME columns come back as text so records carry HH:MM:SS strings.
	selected := make([]string, len(columns))
	for i, c := range columns {
		if c == "start_time" || c == "end_time" {
			selected[i] = fmt.Sprintf("%s::text AS %s", c, c)
			continue
		}
		selected[i] = c
	}

	q := s.sb.Select(selected...).From(collection)
	if where := toSqlizer(filter); where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build select %s query: %w", collection, err)
	}
	return sql, args, nil
}

func (s *PostgresStore) buildInsert(collection string, records []Record) (string, []any, error) {
	sch, err := lookupSchema(collection)
	if err != nil {
		return "", nil, err
	}

	columns := recordColumns(records)
	if err := sch.checkColumns(collection, columns); err != nil {
		return "", nil, err
	}

	q := s.sb.Insert(collection).Columns(columns...)
	for _, rec := range records {
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = rec[c]
		}
		q = q.Values(values...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build insert %s query: %w", collection, err)
	}
	return sql, args, nil
}

func (s *PostgresStore) buildDelete(collection string, filter Filter) (string, []any, error) {
	sch, err := lookupSchema(collection)
	if err != nil {
		return "", nil, err
	}
	if err := sch.checkFilter(collection, filter); err != nil {
		return "", nil, err
	}

	q := s.sb.Delete(collection)
	if where := toSqlizer(filter); where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build delete %s query: %w", collection, err)
	}
	return sql, args, nil
}

// toSqlizer converts a Filter into a squirrel predicate, nil when empty.
func toSqlizer(filter Filter) squirrel.Sqlizer {
	if len(filter) == 0 {
		return nil
	}
	and := make(squirrel.And, 0, len(filter))
	for _, cond := range filter {
		switch cond.Op {
		case OpIn:
			// squirrel renders an empty slice as (1=0)
			and = append(and, squirrel.Eq{cond.Column: cond.Values})
		default:
			and = append(and, squirrel.Eq{cond.Column: cond.Value})
		}
	}
	return and
}

// normalizeValue maps pgx's generic decoded values onto the types the rest
// of the code compares against.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val)
	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return uuid.UUID(val.Bytes)
	case int32:
		return int(val)
	case int64:
		return int(val)
	default:
		return v
	}
}
