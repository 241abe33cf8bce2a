package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	. "todostore/internal/adapter/http/helper"
	"todostore/internal/adapter/http/validation"
	"todostore/internal/core/domain"
	"todostore/internal/core/model/request"
	"todostore/internal/core/model/response"
	"todostore/internal/core/port"
	"todostore/internal/core/util"
	"todostore/pkg/logger"
	. "todostore/pkg/tracing"
)

type TodoHandler struct {
	svc    port.TodoService
	Logger *logger.Logger
}

func NewTodoHandler(todoService port.TodoService, log *logger.Logger) *TodoHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &TodoHandler{
		svc:    todoService,
		Logger: log,
	}
}

func (t *TodoHandler) startSpan(c *gin.Context, operation string) trace.Span {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo."+operation, []attribute.KeyValue{
		attribute.String("handler.operation", operation),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})

	c.Request = c.Request.WithContext(ctx)

	return span
}

// fail answers with the status the error maps to; internal errors are logged.
func (t *TodoHandler) fail(c *gin.Context, span trace.Span, err error, msg string, fields ...zap.Field) {
	status := StatusFor(err)

	if status == http.StatusInternalServerError {
		AddSpanError(span, err)
		t.Logger.ErrorWithTrace(c.Request.Context(), msg, append(fields, zap.Error(err))...)
	}

	AddHTTPAttributes(span, c.Request.Method, c.FullPath(), status)
	SendServiceError(c, err)
}

func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	span := t.startSpan(c, "GetAllTodos")
	defer span.End()

	var filter *bool

	if raw, ok := c.GetQuery("done"); ok {
		done, err := util.ParseBool(raw)

		if err != nil {
			SendValidationError(c, err)
			return
		}

		filter = &done
		span.SetAttributes(attribute.Bool("todo.done", done))
	}

	todos, err := t.svc.List(c.Request.Context(), filter)

	if err != nil {
		t.fail(c, span, err, "Failed to list todos")
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))

	SendSuccess(c, http.StatusOK, response.NewTodoListResponse(todos))
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	span := t.startSpan(c, "GetTodo")
	defer span.End()

	id, err := util.ParseID(c.Param("id"))

	if err != nil {
		SendValidationError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", id))

	todo, err := t.svc.GetByID(c.Request.Context(), id)

	if err != nil {
		t.fail(c, span, err, "Failed to get todo", zap.Int64("todo_id", id))
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	span := t.startSpan(c, "CreateTodo")
	defer span.End()

	params, err := util.ParamsToMap[request.CreateTodoRequest](c)

	if err == nil {
		err = validation.Struct(params)
	}

	if err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.Create(c.Request.Context(), *params.Title, *params.Description)

	if err != nil {
		t.fail(c, span, err, "Failed to create todo")
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))

	SendSuccess(c, http.StatusCreated, response.NewTodoResponse(todo))
}

// UpdateTodo replaces title, description and done. The path id wins over
// any id in the body; created_at in the body is ignored.
func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	span := t.startSpan(c, "UpdateTodo")
	defer span.End()

	id, err := util.ParseID(c.Param("id"))

	if err != nil {
		SendValidationError(c, err)
		return
	}

	params, err := util.ParamsToMap[request.UpdateTodoRequest](c)

	if err == nil {
		err = validation.Struct(params)
	}

	if err != nil {
		SendValidationError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", id))

	todo, err := t.svc.Update(c.Request.Context(), domain.Todo{
		ID:          id,
		Title:       *params.Title,
		Description: *params.Description,
		Done:        *params.Done,
	})

	if err != nil {
		t.fail(c, span, err, "Failed to update todo", zap.Int64("todo_id", id))
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) UpdateStatus(c *gin.Context) {
	span := t.startSpan(c, "UpdateStatus")
	defer span.End()

	id, err := util.ParseID(c.Param("id"))

	if err != nil {
		SendValidationError(c, err)
		return
	}

	raw, ok := c.GetQuery("done")

	if !ok {
		SendValidationError(c, errors.New("done query parameter is required"))
		return
	}

	done, err := util.ParseBool(raw)

	if err != nil {
		SendValidationError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", id), attribute.Bool("todo.done", done))

	current, err := t.svc.UpdateStatus(c.Request.Context(), id, done)

	if err != nil {
		t.fail(c, span, err, "Failed to update todo status", zap.Int64("todo_id", id))
		return
	}

	SendSuccess(c, http.StatusOK, response.StatusResponse{Done: current})
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	span := t.startSpan(c, "DeleteTodo")
	defer span.End()

	id, err := util.ParseID(c.Param("id"))

	if err != nil {
		SendValidationError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := t.svc.Delete(c.Request.Context(), id); err != nil {
		t.fail(c, span, err, "Failed to delete todo", zap.Int64("todo_id", id))
		return
	}

	SendSuccess(c, http.StatusOK, "ok")
}
