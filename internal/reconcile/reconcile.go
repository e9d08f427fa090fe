// Package reconcile turns parsed schedule candidates into instructor, section
// and meeting block records, resolving every foreign key against the store
// before anything that depends on it is written.
package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/app/repositories"
	"github.com/yigit/horario/internal/loader"
	"github.com/yigit/horario/internal/pkg/apperrors"
	"github.com/yigit/horario/internal/schedule"
)

// Conflict lists the distinct values seen for one section field across rows
// sharing an NRC. The first value is the one that was kept. Stored conflicts
// compare the kept row with a section already in the store; the stored value
// comes first and is left untouched.
type Conflict struct {
	NRC    string   `json:"nrc"`
	Field  string   `json:"field"`
	Values []string `json:"values"`
	Stored bool     `json:"stored,omitempty"`
}

// Result summarizes one Reconcile call.
type Result struct {
	InstructorsInserted int
	SectionsInserted    int
	SectionsExisting    int
	SectionsDropped     int
	BlocksInserted      int
	Skips               []schedule.Skip
	Conflicts           []Conflict
}

// Reconciler writes one program/term batch through a BatchLoader.
type Reconciler struct {
	store   repositories.Store
	loader  *loader.BatchLoader
	faculty string
	log     zerolog.Logger
}

// NewReconciler creates a Reconciler. faculty is stamped on new instructors.
func NewReconciler(store repositories.Store, ldr *loader.BatchLoader, faculty string, lgr zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		loader:  ldr,
		faculty: faculty,
		log:     lgr.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile persists candidates for program and term:
//
//  1. instructors not yet known by name are inserted, then names are mapped to ids
//  2. the first row of every NRC defines its section; sections whose
//     instructor cannot be resolved are dropped
//  3. sections are inserted tagged with the program, then NRCs are mapped to
//     ids within that program
//  4. every row fans out into one meeting block per weekday, tagged with the term
//
// Sections already stored for the program are reused rather than inserted again.
// A store failure aborts the call; counts in the returned Result reflect what
// was written before it.
func (r *Reconciler) Reconcile(ctx context.Context, program models.Program, term models.Term, candidates []schedule.Candidate) (Result, error) {
	var res Result
	lgr := r.log.With().Str("program", program.ID).Str("term", string(term)).Logger()

	instructorIDs, inserted, err := r.instructors(ctx, candidates)
	res.InstructorsInserted = inserted
	if err != nil {
		return res, err
	}

	sections, conflicts := canonicalSections(candidates)
	res.Conflicts = conflicts

	existing, err := r.storedSections(ctx, program.ID, nrcsOf(sections),
		"id", "nrc", "course_code", "title", "section_label", "instructor_id")
	if err != nil {
		return res, err
	}
	sectionIDs := idMap(existing, "nrc")
	res.SectionsExisting = len(sectionIDs)

	stale, err := r.storedConflicts(ctx, sections, existing, instructorIDs)
	if err != nil {
		return res, err
	}
	res.Conflicts = append(res.Conflicts, stale...)

	for _, c := range res.Conflicts {
		msg := "Rows sharing an NRC disagree; keeping the first value"
		if c.Stored {
			msg = "Row disagrees with the stored section; keeping the stored value"
		}
		lgr.Warn().Str("nrc", c.NRC).Str("field", c.Field).Strs("values", c.Values).Msg(msg)
	}

	var newSections []repositories.Record
	for _, c := range sections {
		if _, ok := sectionIDs[c.NRC]; ok {
			continue
		}
		instructorID, ok := instructorIDs[c.Professor]
		if !ok {
			reason := "missing instructor"
			if c.Professor != "" {
				reason = fmt.Sprintf("%s: instructor %q", apperrors.ErrUnresolvedReference, c.Professor)
			}
			lgr.Warn().Str("nrc", c.NRC).Int("line", c.Line).Msg("Dropping section: " + reason)
			res.Skips = append(res.Skips, schedule.Skip{Line: c.Line, NRC: c.NRC, Reason: reason})
			res.SectionsDropped++
			continue
		}
		newSections = append(newSections, repositories.Record(models.Section{
			NRC:          c.NRC,
			CourseCode:   c.CourseCode,
			Title:        c.Title,
			SectionLabel: c.Section,
			InstructorID: instructorID,
			ProgramID:    program.ID,
		}.ToRecord()))
	}

	res.SectionsInserted, err = r.loader.Load(ctx, models.CollectionSections, newSections)
	if err != nil {
		return res, err
	}

	if len(newSections) > 0 {
		sectionIDs, err = r.sectionIDs(ctx, program.ID, nrcsOf(sections))
		if err != nil {
			return res, err
		}
	}

	blocks, skips := r.meetingBlocks(lgr, candidates, sectionIDs, term)
	res.Skips = append(res.Skips, skips...)

	res.BlocksInserted, err = r.loader.Load(ctx, models.CollectionMeetingBlocks, blocks)
	if err != nil {
		return res, err
	}

	lgr.Info().
		Int("instructors", res.InstructorsInserted).
		Int("sections", res.SectionsInserted).
		Int("blocks", res.BlocksInserted).
		Int("skips", len(res.Skips)).
		Int("conflicts", len(res.Conflicts)).
		Msg("Program reconciled")
	return res, nil
}

// instructors inserts the names not yet in the store and returns the full
// name to id mapping for every name among candidates.
func (r *Reconciler) instructors(ctx context.Context, candidates []schedule.Candidate) (map[string]uuid.UUID, int, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if c.Professor == "" {
			continue
		}
		if _, ok := seen[c.Professor]; ok {
			continue
		}
		seen[c.Professor] = struct{}{}
		names = append(names, c.Professor)
	}
	if len(names) == 0 {
		return map[string]uuid.UUID{}, 0, nil
	}

	known, err := r.instructorIDs(ctx, names)
	if err != nil {
		return nil, 0, err
	}

	var missing []repositories.Record
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		missing = append(missing, repositories.Record(models.Instructor{Name: name, Faculty: r.faculty}.ToRecord()))
	}
	r.log.Debug().Int("distinct", len(names)).Int("known", len(known)).Int("new", len(missing)).Msg("Instructor names collected")

	inserted, err := r.loader.Load(ctx, models.CollectionInstructors, missing)
	if err != nil {
		return nil, inserted, err
	}
	if inserted == 0 {
		return known, 0, nil
	}

	all, err := r.instructorIDs(ctx, names)
	return all, inserted, err
}

func (r *Reconciler) instructorIDs(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	rows, err := r.store.Select(ctx, models.CollectionInstructors, repositories.Where(repositories.In("name", names)), "id", "name")
	if err != nil {
		return nil, err
	}
	return idMap(rows, "name"), nil
}

func (r *Reconciler) sectionIDs(ctx context.Context, programID string, nrcs []string) (map[string]uuid.UUID, error) {
	rows, err := r.storedSections(ctx, programID, nrcs, "id", "nrc")
	if err != nil {
		return nil, err
	}
	return idMap(rows, "nrc"), nil
}

func (r *Reconciler) storedSections(ctx context.Context, programID string, nrcs []string, columns ...string) ([]repositories.Record, error) {
	if len(nrcs) == 0 {
		return nil, nil
	}
	return r.store.Select(ctx, models.CollectionSections,
		repositories.Where(repositories.Eq("program_id", programID), repositories.In("nrc", nrcs)),
		columns...)
}

// storedConflicts reports, for every kept row whose NRC is already stored for
// the program, the fields that differ from the stored section. Instructors
// are compared by id and reported by name.
func (r *Reconciler) storedConflicts(ctx context.Context, sections []schedule.Candidate, stored []repositories.Record, instructorIDs map[string]uuid.UUID) ([]Conflict, error) {
	if len(stored) == 0 {
		return nil, nil
	}
	byNRC := make(map[string]repositories.Record, len(stored))
	for _, row := range stored {
		nrc, _ := row["nrc"].(string)
		byNRC[nrc] = row
	}

	var changed []uuid.UUID
	for _, c := range sections {
		row, ok := byNRC[c.NRC]
		if !ok {
			continue
		}
		was, _ := row["instructor_id"].(uuid.UUID)
		if id, ok := instructorIDs[c.Professor]; !ok || id != was {
			changed = append(changed, was)
		}
	}
	names, err := r.instructorNames(ctx, changed)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, c := range sections {
		row, ok := byNRC[c.NRC]
		if !ok {
			continue
		}
		for _, f := range []struct{ column, value string }{
			{"course_code", c.CourseCode},
			{"title", c.Title},
			{"section_label", c.Section},
		} {
			if was, _ := row[f.column].(string); was != f.value {
				conflicts = append(conflicts, Conflict{NRC: c.NRC, Field: f.column, Values: []string{was, f.value}, Stored: true})
			}
		}
		was, _ := row["instructor_id"].(uuid.UUID)
		if id, ok := instructorIDs[c.Professor]; !ok || id != was {
			conflicts = append(conflicts, Conflict{NRC: c.NRC, Field: "instructor", Values: []string{names[was], c.Professor}, Stored: true})
		}
	}
	return conflicts, nil
}

func (r *Reconciler) instructorNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.store.Select(ctx, models.CollectionInstructors, repositories.Where(repositories.In("id", ids)), "id", "name")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		id, ok := row["id"].(uuid.UUID)
		if !ok {
			continue
		}
		names[id], _ = row["name"].(string)
	}
	return names, nil
}

func (r *Reconciler) meetingBlocks(lgr zerolog.Logger, candidates []schedule.Candidate, sectionIDs map[string]uuid.UUID, term models.Term) ([]repositories.Record, []schedule.Skip) {
	var (
		blocks []repositories.Record
		skips  []schedule.Skip
	)
	for _, c := range candidates {
		sectionID, ok := sectionIDs[c.NRC]
		if !ok {
			// the section was dropped and already reported
			continue
		}

		days, dropped := schedule.ExpandDays(c.DayCode())
		if len(dropped) > 0 {
			lgr.Warn().Str("nrc", c.NRC).Int("line", c.Line).Str("letters", string(dropped)).Msg("Ignoring unknown day letters")
		}
		if len(days) == 0 {
			skips = append(skips, schedule.Skip{Line: c.Line, NRC: c.NRC, Reason: fmt.Sprintf("no valid day in %q", c.DayCode())})
			continue
		}

		for _, day := range days {
			blocks = append(blocks, repositories.Record(models.MeetingBlock{
				SectionID: sectionID,
				NRC:       c.NRC,
				Day:       day,
				StartTime: c.StartTime,
				EndTime:   c.EndTime,
				Room:      c.Room,
				TermID:    term,
			}.ToRecord()))
		}
	}
	return blocks, skips
}

// canonicalSections keeps the first candidate of each NRC, in order of first
// appearance, and reports fields on which later rows disagree.
func canonicalSections(candidates []schedule.Candidate) ([]schedule.Candidate, []Conflict) {
	type fieldValues struct {
		name   string
		get    func(schedule.Candidate) string
		values map[string][]string
	}
	fields := []*fieldValues{
		{name: "course_code", get: func(c schedule.Candidate) string { return c.CourseCode }},
		{name: "title", get: func(c schedule.Candidate) string { return c.Title }},
		{name: "section_label", get: func(c schedule.Candidate) string { return c.Section }},
		{name: "instructor", get: func(c schedule.Candidate) string { return c.Professor }},
	}
	for _, f := range fields {
		f.values = make(map[string][]string)
	}

	var firsts []schedule.Candidate
	for _, c := range candidates {
		if _, ok := fields[0].values[c.NRC]; !ok {
			firsts = append(firsts, c)
		}
		for _, f := range fields {
			f.values[c.NRC] = appendDistinct(f.values[c.NRC], f.get(c))
		}
	}

	var conflicts []Conflict
	for _, c := range firsts {
		for _, f := range fields {
			if vs := f.values[c.NRC]; len(vs) > 1 {
				conflicts = append(conflicts, Conflict{NRC: c.NRC, Field: f.name, Values: vs})
			}
		}
	}
	return firsts, conflicts
}

func appendDistinct(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func nrcsOf(candidates []schedule.Candidate) []string {
	nrcs := make([]string, len(candidates))
	for i, c := range candidates {
		nrcs[i] = c.NRC
	}
	return nrcs
}

// idMap indexes rows by the string column key, keeping uuid ids only.
func idMap(rows []repositories.Record, key string) map[string]uuid.UUID {
	out := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		k, _ := row[key].(string)
		id, ok := row["id"].(uuid.UUID)
		if k == "" || !ok {
			continue
		}
		out[k] = id
	}
	return out
}
