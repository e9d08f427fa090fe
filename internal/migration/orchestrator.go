// Package migration sequences a schedule import run: connect, optionally
// reset, then parse, reconcile and load each requested program in turn.
package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/app/repositories"
	"github.com/yigit/horario/internal/loader"
	"github.com/yigit/horario/internal/pkg/apperrors"
	"github.com/yigit/horario/internal/reconcile"
	"github.com/yigit/horario/internal/schedule"
)

// State is the orchestrator's position in a run.
type State int

// Run states, in the order a run moves through them.
const (
	Idle State = iota
	Connected
	FullReset
	PerProgramMigration
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connected:
		return "connected"
	case FullReset:
		return "full-reset"
	case PerProgramMigration:
		return "per-program-migration"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Connector establishes the store a run writes to.
type Connector func(ctx context.Context) (repositories.Store, error)

// SourceOpener returns the reader for a program's source file.
type SourceOpener func(path string, lgr zerolog.Logger) schedule.Source

// Settings tune how records are written.
type Settings struct {
	BatchSize int
	Limiter   loader.Limiter
	Faculty   string
}

// Options select what a run imports.
type Options struct {
	Programs []models.Program
	// All marks a run over every configured program: missing sources and
	// failing programs are reported without stopping the others.
	All          bool
	Term         models.Term
	ScopedDelete bool
	FullReset    bool
}

// Orchestrator drives one or more runs against stores from its Connector.
type Orchestrator struct {
	connect  Connector
	open     SourceOpener
	settings Settings
	state    State
	log      zerolog.Logger
}

// NewOrchestrator creates an Orchestrator that reads sources with schedule.Open.
func NewOrchestrator(connect Connector, settings Settings, lgr zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		connect:  connect,
		open:     func(path string, l zerolog.Logger) schedule.Source { return schedule.Open(path, l) },
		settings: settings,
		log:      lgr.With().Str("component", "migration").Logger(),
	}
}

// WithSourceOpener replaces how program sources are opened.
func (o *Orchestrator) WithSourceOpener(open SourceOpener) *Orchestrator {
	o.open = open
	return o
}

// State reports where the last run got to.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(s State) {
	o.log.Debug().Stringer("from", o.state).Stringer("to", s).Msg("State transition")
	o.state = s
}

// Run executes one migration. The returned Summary is non-nil whenever the
// connection succeeded, even if the run failed part way.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	o.state = Idle

	if len(opts.Programs) == 0 {
		return nil, fmt.Errorf("%w: no program selected", apperrors.ErrUnknownProgram)
	}
	if opts.Term == "" {
		return nil, errors.New("term is required")
	}

	store, err := o.connect(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrConnection) {
			err = fmt.Errorf("%w: %w", apperrors.ErrConnection, err)
		}
		o.log.Error().Err(err).Msg("Could not connect to the store")
		return nil, err
	}
	o.transition(Connected)

	summary := &Summary{Term: opts.Term}

	if opts.FullReset {
		o.transition(FullReset)
		if err := o.fullReset(ctx, store); err != nil {
			return summary, err
		}
		summary.FullReset = true
	}

	ldr := loader.NewBatchLoader(store, o.settings.BatchSize, o.settings.Limiter, o.log)
	rec := reconcile.NewReconciler(store, ldr, o.settings.Faculty, o.log)

	o.transition(PerProgramMigration)
	var errs []error
	for _, program := range opts.Programs {
		ps, err := o.migrateProgram(ctx, store, rec, program, opts)
		summary.Programs = append(summary.Programs, ps)
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return summary, err
		}
		if !opts.All {
			return summary, err
		}
		if errors.Is(err, apperrors.ErrSourceNotFound) {
			o.log.Warn().Str("program", program.ID).Str("source", program.Source).Msg("Source file missing, skipping program")
			continue
		}
		o.log.Error().Err(err).Str("program", program.ID).Msg("Program migration failed, continuing with the next one")
		errs = append(errs, fmt.Errorf("program %s: %w", program.ID, err))
	}

	o.transition(Done)
	instructors, sections, blocks := summary.Totals()
	o.log.Info().
		Str("term", string(opts.Term)).
		Int("programs", len(summary.Programs)).
		Int("instructors", instructors).
		Int("sections", sections).
		Int("blocks", blocks).
		Msg("Migration finished")

	return summary, errors.Join(errs...)
}

func (o *Orchestrator) migrateProgram(ctx context.Context, store repositories.Store, rec *reconcile.Reconciler, program models.Program, opts Options) (ProgramSummary, error) {
	ps := ProgramSummary{Program: program}
	lgr := o.log.With().Str("program", program.ID).Str("term", string(opts.Term)).Logger()

	candidates, skips, err := o.open(program.Source, lgr).Read(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrSourceNotFound) {
			ps.SourceMissing = true
		}
		ps.Err = err
		return ps, err
	}
	ps.Parsed = len(candidates)
	ps.Skips = skips
	lgr.Info().Str("source", program.Source).Int("rows", len(candidates)).Int("skipped", len(skips)).Msg("Source parsed")

	if opts.ScopedDelete {
		if err := o.scopedDelete(ctx, store, program, opts.Term); err != nil {
			ps.Err = err
			return ps, err
		}
	}

	res, err := rec.Reconcile(ctx, program, opts.Term, candidates)
	ps.InstructorsInserted = res.InstructorsInserted
	ps.SectionsInserted = res.SectionsInserted
	ps.BlocksInserted = res.BlocksInserted
	ps.Skips = append(ps.Skips, res.Skips...)
	ps.Conflicts = res.Conflicts
	if err != nil {
		ps.Err = err
		return ps, err
	}
	return ps, nil
}

// fullReset empties every collection, children first.
func (o *Orchestrator) fullReset(ctx context.Context, store repositories.Store) error {
	for _, collection := range []string{
		models.CollectionMeetingBlocks,
		models.CollectionSections,
		models.CollectionInstructors,
	} {
		if err := store.Delete(ctx, collection, nil); err != nil {
			o.log.Error().Err(err).Str("collection", collection).Msg("Full reset failed")
			return err
		}
		o.log.Info().Str("collection", collection).Msg("Collection emptied")
	}
	return nil
}

// scopedDelete removes the program's meeting blocks for term, then the
// program's sections left without any block. Sections still meeting in
// another term are kept.
func (o *Orchestrator) scopedDelete(ctx context.Context, store repositories.Store, program models.Program, term models.Term) error {
	rows, err := store.Select(ctx, models.CollectionSections, repositories.Where(repositories.Eq("program_id", program.ID)), "id")
	if err != nil {
		return err
	}
	sectionIDs := ids(rows, "id")
	if len(sectionIDs) == 0 {
		return nil
	}

	if err := store.Delete(ctx, models.CollectionMeetingBlocks, repositories.Where(
		repositories.In("section_id", sectionIDs),
		repositories.Eq("term_id", string(term)),
	)); err != nil {
		return err
	}

	rows, err = store.Select(ctx, models.CollectionMeetingBlocks, repositories.Where(repositories.In("section_id", sectionIDs)), "section_id")
	if err != nil {
		return err
	}
	stillUsed := make(map[uuid.UUID]struct{})
	for _, id := range ids(rows, "section_id") {
		stillUsed[id] = struct{}{}
	}

	var orphans []uuid.UUID
	for _, id := range sectionIDs {
		if _, ok := stillUsed[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		if err := store.Delete(ctx, models.CollectionSections, repositories.Where(repositories.In("id", orphans))); err != nil {
			return err
		}
	}

	o.log.Info().
		Str("program", program.ID).
		Str("term", string(term)).
		Int("sections", len(orphans)).
		Int("kept", len(sectionIDs)-len(orphans)).
		Msg("Scoped delete done")
	return nil
}

func ids(rows []repositories.Record, column string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if id, ok := row[column].(uuid.UUID); ok {
			out = append(out, id)
		}
	}
	return out
}
