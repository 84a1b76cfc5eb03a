package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"donortrack/internal/core"
)

const programColumns = "id, name, description, start_date, end_date, budget_cents, goal_amount_cents, " +
	"current_progress_cents, created_at, updated_at"

func scanProgram(row rowScanner) (core.Program, error) {
	var (
		p                core.Program
		description      sql.NullString
		start, end       dateCol
		budget, goal     sql.NullInt64
		progress         sql.NullInt64
		created, updated timeCol
	)
	err := row.Scan(&p.ID, &p.Name, &description, &start, &end, &budget, &goal, &progress, &created, &updated)
	if err != nil {
		return p, err
	}
	p.Description = strPtr(description)
	p.StartDate, p.EndDate = start.Ptr(), end.Ptr()
	p.Budget, p.GoalAmount = moneyPtr(budget), moneyPtr(goal)
	p.CurrentProgress = core.Money{Cents: progress.Int64}
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return p, nil
}

func programValues(p core.Program) map[string]any {
	return map[string]any{
		"name":              p.Name,
		"description":       nullStringArg(p.Description),
		"start_date":        nullDateArg(p.StartDate),
		"end_date":          nullDateArg(p.EndDate),
		"budget_cents":      nullMoneyArg(p.Budget),
		"goal_amount_cents": nullMoneyArg(p.GoalAmount),
	}
}

// CreateProgram stores p with zero progress; CurrentProgress on p is ignored.
func (q *Queries) CreateProgram(ctx context.Context, p core.Program) (core.Program, error) {
	now := q.now()
	values := programValues(p)
	values["current_progress_cents"] = 0
	values["created_at"] = now
	values["updated_at"] = now

	b := q.sb.Insert("programs").SetMap(values).Suffix("RETURNING " + programColumns)
	created, err := getOne(ctx, q, b, core.KindProgram, 0, scanProgram)
	if err != nil {
		return core.Program{}, fmt.Errorf("create program: %w", err)
	}

	slog.InfoContext(ctx, "Program saved", "program_id", created.ID)
	return created, nil
}

func (q *Queries) GetProgram(ctx context.Context, id int64) (core.Program, error) {
	b := q.sb.Select(programColumns).From("programs").Where(sq.Eq{"id": id})
	return getOne(ctx, q, b, core.KindProgram, id, scanProgram)
}

func (q *Queries) ListPrograms(ctx context.Context, f ProgramFilter, p Page) ([]core.Program, error) {
	b := p.apply(q.sb.Select(programColumns).From("programs").Where(f.where()))
	programs, err := getMany(ctx, q, b, scanProgram)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// UpdateProgram replaces the mutable fields of program id. The stored
// progress is left untouched.
func (q *Queries) UpdateProgram(ctx context.Context, id int64, p core.Program) (core.Program, error) {
	values := programValues(p)
	values["updated_at"] = q.now()

	b := q.sb.Update("programs").SetMap(values).Where(sq.Eq{"id": id}).Suffix("RETURNING " + programColumns)
	return getOne(ctx, q, b, core.KindProgram, id, scanProgram)
}

func (q *Queries) DeleteProgram(ctx context.Context, id int64) (core.Program, error) {
	b := q.sb.Delete("programs").Where(sq.Eq{"id": id}).Suffix("RETURNING " + programColumns)
	return getOne(ctx, q, b, core.KindProgram, id, scanProgram)
}

func (q *Queries) ProgramExists(ctx context.Context, id int64) (bool, error) {
	return q.exists(ctx, "programs", id)
}

// DetachProgram clears program_id on every donation and pledge that references id.
func (q *Queries) DetachProgram(ctx context.Context, id int64) error {
	now := q.now()
	for _, table := range []string{"donations", "pledges"} {
		b := q.sb.Update(table).
			Set("program_id", nil).
			Set("updated_at", now).
			Where(sq.Eq{"program_id": id})
		n, err := q.exec(ctx, b)
		if err != nil {
			return fmt.Errorf("detach program from %s: %w", table, err)
		}
		if n > 0 {
			slog.InfoContext(ctx, "Program detached", "program_id", id, "table", table, "rows", n)
		}
	}
	return nil
}

// AdjustProgramProgress adds delta to the stored progress of program id.
// It reports false when the program does not exist.
func (q *Queries) AdjustProgramProgress(ctx context.Context, id int64, delta core.Money) (bool, error) {
	b := q.sb.Update("programs").
		Set("current_progress_cents", sq.Expr("COALESCE(current_progress_cents, 0) + ?", delta.Cents)).
		Set("updated_at", q.now()).
		Where(sq.Eq{"id": id})
	n, err := q.exec(ctx, b)
	if err != nil {
		return false, fmt.Errorf("adjust program progress: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	slog.InfoContext(ctx, "Program progress adjusted", "program_id", id, "delta_cents", delta.Cents)
	return true, nil
}

// SetProgramProgress overwrites the stored progress of program id.
func (q *Queries) SetProgramProgress(ctx context.Context, id int64, progress core.Money) error {
	b := q.sb.Update("programs").
		Set("current_progress_cents", progress.Cents).
		Set("updated_at", q.now()).
		Where(sq.Eq{"id": id})
	n, err := q.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("set program progress: %w", err)
	}
	if n == 0 {
		return notFound(core.KindProgram, id)
	}
	return nil
}

// SumProgramDonations totals the amounts of all donations attributed to program id.
func (q *Queries) SumProgramDonations(ctx context.Context, id int64) (core.Money, error) {
	query, args, err := q.sb.Select("CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT)").
		From("donations").
		Where(sq.Eq{"program_id": id}).
		ToSql()
	if err != nil {
		return core.Money{}, fmt.Errorf("build donation sum: %w", err)
	}
	var cents int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum program donations: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListProgramIDs returns every program id in ascending order.
func (q *Queries) ListProgramIDs(ctx context.Context) ([]int64, error) {
	b := q.sb.Select("id").From("programs").OrderBy("id")
	ids, err := getMany(ctx, q, b, func(row rowScanner) (int64, error) {
		var id int64
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("list program ids: %w", err)
	}
	return ids, nil
}
