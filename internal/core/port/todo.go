package port

import (
	"context"

	"todostore/internal/core/domain"
)

type TodoRepository interface {
	List(ctx context.Context, done *bool) ([]domain.Todo, error)
	GetByID(ctx context.Context, id int64) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	UpdateStatus(ctx context.Context, id int64, done bool) (bool, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type TodoService interface {
	List(ctx context.Context, done *bool) ([]domain.Todo, error)
	GetByID(ctx context.Context, id int64) (domain.Todo, error)
	Create(ctx context.Context, title, description string) (domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	UpdateStatus(ctx context.Context, id int64, done bool) (bool, error)
	Delete(ctx context.Context, id int64) error
}
