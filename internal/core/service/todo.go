package service

import (
	"context"
	"time"

	"todostore/internal/core/domain"
	"todostore/internal/core/port"
	tel "todostore/internal/core/telemetry"
)

type TodoService struct {
	repo      port.TodoRepository
	telemetry port.Telemetry
	now       func() time.Time
}

func NewTodoService(repo port.TodoRepository, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{
		repo:      repo,
		telemetry: telemetry,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to stamp created_at.
func (ts *TodoService) WithClock(now func() time.Time) *TodoService {
	ts.now = now
	return ts
}

func (ts *TodoService) List(ctx context.Context, done *bool) ([]domain.Todo, error) {
	attrs := map[string]interface{}{"todo.filtered": done != nil}
	if done != nil {
		attrs["todo.done"] = *done
	}

	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "List", attrs)
	defer span.End()

	todos, err := ts.repo.List(ctx, done)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(map[string]interface{}{"todo.count": len(todos)})

	return todos, nil
}

func (ts *TodoService) GetByID(ctx context.Context, id int64) (domain.Todo, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "GetByID", map[string]interface{}{"todo.id": id})
	defer span.End()

	todo, err := ts.repo.GetByID(ctx, id)

	if err != nil {
		span.RecordError(err)
		return domain.Todo{}, err
	}

	return todo, nil
}

func (ts *TodoService) Create(ctx context.Context, title, description string) (domain.Todo, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "Create", nil)
	defer span.End()

	newTodo := domain.Todo{
		Title:       title,
		Description: description,
		Done:        false,
		CreatedAt:   ts.now().Unix(),
	}

	todo, err := ts.repo.Create(ctx, newTodo)

	if err != nil {
		span.RecordError(err)
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "created", "todo", todo.ID, map[string]interface{}{
		"created_at": todo.CreatedAt,
	})

	return todo, nil
}

func (ts *TodoService) Update(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "Update", map[string]interface{}{"todo.id": todo.ID})
	defer span.End()

	updated, err := ts.repo.Update(ctx, todo)

	if err != nil {
		span.RecordError(err)
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "updated", "todo", updated.ID, map[string]interface{}{
		"done": updated.Done,
	})

	return updated, nil
}

func (ts *TodoService) UpdateStatus(ctx context.Context, id int64, done bool) (bool, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "UpdateStatus", map[string]interface{}{
		"todo.id":   id,
		"todo.done": done,
	})
	defer span.End()

	current, err := ts.repo.UpdateStatus(ctx, id, done)

	if err != nil {
		span.RecordError(err)
		return false, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "status_updated", "todo", id, map[string]interface{}{
		"done": current,
	})

	return current, nil
}

func (ts *TodoService) Delete(ctx context.Context, id int64) error {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "todo", "Delete", map[string]interface{}{"todo.id": id})
	defer span.End()

	if err := ts.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "deleted", "todo", id, nil)

	return nil
}
