package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "todostore/internal/adapter/http/helper"
	"todostore/internal/core/port"
	"todostore/pkg/logger"
	. "todostore/pkg/tracing"
)

type WeatherHandler struct {
	svc    port.WeatherService
	Logger *logger.Logger
}

func NewWeatherHandler(weatherService port.WeatherService, log *logger.Logger) *WeatherHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &WeatherHandler{
		svc:    weatherService,
		Logger: log,
	}
}

func (w *WeatherHandler) GetCurrentWeather(c *gin.Context) {
	location, ok := c.GetQuery("country")

	if !ok {
		SendValidationError(c, errors.New("country query parameter is required"))
		return
	}

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.weather.GetCurrentWeather", []attribute.KeyValue{
		attribute.String("weather.location", location),
	})
	defer span.End()

	summary, err := w.svc.CurrentWeather(ctx, location)

	if err != nil {
		status := StatusFor(err)

		if status == http.StatusInternalServerError {
			AddSpanError(span, err)
			w.Logger.ErrorWithTrace(ctx, "Failed to get current weather",
				zap.String("location", location),
				zap.Error(err))
		}

		SendError(c, status, err.Error())
		return
	}

	SendSuccess(c, http.StatusOK, summary)
}
