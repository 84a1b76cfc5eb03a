package services

import (
	"context"
	"fmt"
	"log/slog"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

// ProgramService manages programs. Progress is never taken from the
// caller: it starts at zero and only the ledger moves it.
type ProgramService struct {
	store *storage.Store
}

func NewProgramService(store *storage.Store) *ProgramService {
	return &ProgramService{store: store}
}

func (s *ProgramService) Create(ctx context.Context, p core.Program) (core.Program, error) {
	return s.store.Queries().CreateProgram(ctx, p)
}

func (s *ProgramService) Get(ctx context.Context, id int64) (core.Program, error) {
	return s.store.Queries().GetProgram(ctx, id)
}

func (s *ProgramService) List(ctx context.Context, f storage.ProgramFilter, p storage.Page) ([]core.Program, error) {
	return s.store.Queries().ListPrograms(ctx, f, p)
}

func (s *ProgramService) Update(ctx context.Context, id int64, p core.Program) (core.Program, error) {
	return s.store.Queries().UpdateProgram(ctx, id, p)
}

// Delete detaches the program from its donations and pledges, then removes it.
func (s *ProgramService) Delete(ctx context.Context, id int64) (core.Program, error) {
	var deleted core.Program
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetProgram(ctx, id); err != nil {
			return err
		}
		if err := q.DetachProgram(ctx, id); err != nil {
			return err
		}
		var err error
		deleted, err = q.DeleteProgram(ctx, id)
		return err
	})
	if err != nil {
		return core.Program{}, fmt.Errorf("delete program: %w", err)
	}

	slog.InfoContext(ctx, "Program deleted", "program_id", id)
	return deleted, nil
}
