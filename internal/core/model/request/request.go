package request

// Pointer fields distinguish a missing key from an empty value.

type CreateTodoRequest struct {
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

type UpdateTodoRequest struct {
	ID          *int64  `json:"id,omitempty"`
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Done        *bool   `json:"done" validate:"required"`
	CreatedAt   *int64  `json:"created_at,omitempty"`
}
