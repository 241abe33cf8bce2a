package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todostore/internal/adapter/database/sqlite"
	"todostore/internal/core/domain"
	"todostore/internal/core/port"
	tel "todostore/internal/core/telemetry"
)

const todoTable = "todo"

var todoColumns = []string{"id", "title", "description", "done", "created_at"}

type TodoRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) List(ctx context.Context, done *bool) ([]domain.Todo, error) {
	attrs := map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "SELECT",
	}
	if done != nil {
		attrs["todo.done"] = *done
	}

	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "List", "todo", attrs)
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Select(todoColumns...).
		From(todoTable).
		OrderBy("id")

	if done != nil {
		query = query.Where(sq.Eq{"done": domain.BoolToInt(*done)})
	}

	todos := make([]domain.Todo, 0)

	err := tr.query(ctx, query, func(rows *sql.Rows) error {
		return tr.scanner.ScanRowsToSlice(rows, &todos)
	})

	tr.telemetry.RecordRepositoryOperation(ctx, "List", "todo", time.Since(startTime), err)

	if err != nil {
		return nil, err
	}

	span.SetAttributes(map[string]interface{}{"db.rows_returned": len(todos)})

	return todos, nil
}

func (tr *TodoRepository) GetByID(ctx context.Context, id int64) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "GetByID", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "SELECT",
		"todo.id":      id,
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Select(todoColumns...).
		From(todoTable).
		Where(sq.Eq{"id": id}).
		Limit(1)

	todo, err := tr.queryOne(ctx, query)

	if errors.Is(err, sql.ErrNoRows) {
		err = domain.TodoNotFound(id)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "GetByID", "todo", time.Since(startTime), ignoreNotFound(err))

	return todo, err
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "INSERT",
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Insert(todoTable).
		Columns("title", "description", "done", "created_at").
		Values(todo.Title, todo.Description, domain.BoolToInt(todo.Done), todo.CreatedAt).
		Suffix(returningTodo())

	saved, err := tr.queryOne(ctx, query)

	tr.telemetry.RecordRepositoryOperation(ctx, "Create", "todo", time.Since(startTime), err)

	if err != nil {
		return domain.Todo{}, err
	}

	span.SetAttributes(map[string]interface{}{"todo.id": saved.ID})

	return saved, nil
}

func (tr *TodoRepository) Update(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Update", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "UPDATE",
		"todo.id":      todo.ID,
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Update(todoTable).
		SetMap(todo.ToMap()).
		Where(sq.Eq{"id": todo.ID}).
		Suffix(returningTodo())

	updated, err := tr.queryOne(ctx, query)

	if errors.Is(err, sql.ErrNoRows) {
		err = domain.TodoNotUpdated(todo.ID)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "Update", "todo", time.Since(startTime), ignoreNotFound(err))

	return updated, err
}

func (tr *TodoRepository) UpdateStatus(ctx context.Context, id int64, done bool) (bool, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "UpdateStatus", "todo", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     todoTable,
		"db.operation": "UPDATE",
		"todo.id":      id,
		"todo.done":    done,
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Update(todoTable).
		Set("done", domain.BoolToInt(done)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING done")

	var current struct{ Done bool }

	err := tr.query(ctx, query, func(rows *sql.Rows) error {
		return tr.scanner.ScanRowToStruct(rows, &current)
	})

	if errors.Is(err, sql.ErrNoRows) {
		err = domain.TodoNotFound(id)
	}

	tr.telemetry.RecordRepositoryOperation(ctx, "UpdateStatus", "todo", time.Since(startTime), ignoreNotFound(err))

	if err != nil {
		return false, err
	}

	return current.Done, nil
}

func (tr *TodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Delete", "todo", map[string]interface{}{
		"db.system":    "sqlite",
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
	return tr.db.PingContext(ctx)
}

func (tr *TodoRepository) delete(ctx context.Context, id int64) error {
	query, args, err := tr.db.QueryBuilder.Delete(todoTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if rowsAffected < 1 {
		return domain.TodoNotDeleted(id)
	}

	return nil
}

func (tr *TodoRepository) queryOne(ctx context.Context, query sq.Sqlizer) (domain.Todo, error) {
	var todo domain.Todo

	err := tr.query(ctx, query, func(rows *sql.Rows) error {
		return tr.scanner.ScanRowToStruct(rows, &todo)
	})

	if err != nil {
		return domain.Todo{}, err
	}

	return todo, nil
}

// query runs a statement that yields rows and hands them to scan. The
// connection goes back to the pool before query returns.
func (tr *TodoRepository) query(ctx context.Context, query sq.Sqlizer, scan func(*sql.Rows) error) error {
	statement, args, err := query.ToSql()

	if err != nil {
		return err
	}

	rows, err := tr.db.QueryContext(ctx, statement, args...)

	if err != nil {
		return err
	}

	defer rows.Close()

	if err := scan(rows); err != nil {
		return err
	}

	return rows.Close()
}

func returningTodo() string {
	return "RETURNING id, title, description, done, created_at"
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}

	return err
}
