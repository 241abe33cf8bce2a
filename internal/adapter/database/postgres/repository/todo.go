package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"todostore/internal/adapter/database/postgres"
	"todostore/internal/core/domain"
	"todostore/internal/core/port"
	tel "todostore/internal/core/telemetry"
)

const todoTable = "todo"

var todoColumns = []string{"id", "title", "description", "done", "created_at"}

type TodoRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{db: db, telemetry: telemetry}
}

func (tr *TodoRepository) List(ctx context.Context, done *bool) ([]domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "List", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "SELECT",
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Select(todoColumns...).
		From(todoTable).
		OrderBy("id")

	if done != nil {
		query = query.Where(sq.Eq{"done": domain.BoolToInt(*done)})
	}

	todos, err := tr.list(ctx, query)

	tr.telemetry.RecordRepositoryOperation(ctx, "List", "todo", time.Since(startTime), err)

	if err != nil {
		return nil, err
	}

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id int64) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "GetByID", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "SELECT",
		"todo.id":      id,
	})
	defer span.End()

	startTime := time.Now()

	todo, err := tr.queryOne(ctx, tr.db.QueryBuilder.Select(todoColumns...).
		From(todoTable).
		Where(sq.Eq{"id": id}))

	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.TodoNotFound(id)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "GetByID", "todo", time.Since(startTime), ignoreNotFound(err))

	return todo, err
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "INSERT",
	})
	defer span.End()

	startTime := time.Now()

	saved, err := tr.queryOne(ctx, tr.db.QueryBuilder.Insert(todoTable).
		Columns("title", "description", "done", "created_at").
		Values(todo.Title, todo.Description, domain.BoolToInt(todo.Done), todo.CreatedAt).
		Suffix("RETURNING id, title, description, done, created_at"))

	tr.telemetry.RecordRepositoryOperation(ctx, "Create", "todo", time.Since(startTime), err)

	return saved, err
}

func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Update", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
	})
	defer span.End()

	startTime := time.Now()

	updated, err := tr.queryOne(ctx, tr.db.QueryBuilder.Update(todoTable).
		SetMap(todo.ToMap()).
		Where(sq.Eq{"id": todo.ID}).
		Suffix("RETURNING id, title, description, done, created_at"))

	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.TodoNotUpdated(todo.ID)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "Update", "todo", time.Since(startTime), ignoreNotFound(err))

	return updated, err
}

func (tr *TodoRepository) UpdateStatus(ctx context.Context, id int64, done bool) (bool, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "UpdateStatus", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "UPDATE",
		"todo.id":      id,
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Update(todoTable).
		Set("done", domain.BoolToInt(done)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING done").
		ToSql()

	var stored int

	if err == nil {
		err = tr.db.QueryRow(ctx, query, args...).Scan(&stored)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		err = domain.TodoNotFound(id)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "UpdateStatus", "todo", time.Since(startTime), ignoreNotFound(err))

	if err != nil {
		return false, err
	}

	return stored != 0, nil
}

func (tr *TodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Delete", "todo", map[string]interface{}{
		"db.system":    "postgresql",
		"db.table":     todoTable,
		"db.operation": "DELETE",
		"todo.id":      id,
	})
	defer span.End()

	startTime := time.Now()

	err := tr.delete(ctx, id)

	tr.telemetry.RecordRepositoryOperation(ctx, "Delete", "todo", time.Since(startTime), ignoreNotFound(err))

	return err
}

func (tr *TodoRepository) Ping(ctx context.Context) error {
	return tr.db.Ping(ctx)
}

func (tr *TodoRepository) delete(ctx context.Context, id int64) error {
	query, args, err := tr.db.QueryBuilder.Delete(todoTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := tr.db.Exec(ctx, query, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() < 1 {
		return domain.TodoNotDeleted(id)
	}

	return nil
}

func (tr *TodoRepository) list(ctx context.Context, query sq.Sqlizer) ([]domain.Todo, error) {
	statement, args, err := query.ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.Query(ctx, statement, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	todos := make([]domain.Todo, 0)

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, err
		}

		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

func (tr *TodoRepository) queryOne(ctx context.Context, query sq.Sqlizer) (domain.Todo, error) {
	statement, args, err := query.ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	return scanTodo(tr.db.QueryRow(ctx, statement, args...))
}

func scanTodo(row pgx.Row) (domain.Todo, error) {
	var todo domain.Todo
	var done int

	if err := row.Scan(&todo.ID, &todo.Title, &todo.Description, &done, &todo.CreatedAt); err != nil {
		return domain.Todo{}, err
	}

	todo.Done = done != 0

	return todo, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}

	return err
}
