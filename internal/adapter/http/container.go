package http

import (
	"todostore/internal/adapter/http/handler"
	"todostore/internal/adapter/http/routes"
	"todostore/internal/core/port"
	"todostore/internal/core/service"
	"todostore/pkg/logger"
)

type Container struct {
	TodoRepo port.TodoRepository

	TodoService    port.TodoService
	WeatherService port.WeatherService

	TodoHandler    *handler.TodoHandler
	WeatherHandler *handler.WeatherHandler
	HealthHandler  *handler.HealthHandler
}

func NewContainer(todoRepo port.TodoRepository, weather port.WeatherProvider, probe port.Telemetry, log *logger.Logger) *Container {
	todoSvc := service.NewTodoService(todoRepo, probe)
	weatherSvc := service.NewWeatherService(weather, probe)

	return &Container{
		TodoRepo: todoRepo,

		TodoService:    todoSvc,
		WeatherService: weatherSvc,

		TodoHandler:    handler.NewTodoHandler(todoSvc, log),
		WeatherHandler: handler.NewWeatherHandler(weatherSvc, log),
		HealthHandler:  handler.NewHealthHandler(todoRepo),
	}
}

func (c *Container) Handlers() routes.HandlersConfig {
	return routes.HandlersConfig{
		TodoHandler:    c.TodoHandler,
		WeatherHandler: c.WeatherHandler,
		HealthHandler:  c.HealthHandler,
	}
}
