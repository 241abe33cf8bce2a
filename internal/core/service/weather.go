package service

import (
	"context"

	"todostore/internal/core/port"
	tel "todostore/internal/core/telemetry"
)

type WeatherService struct {
	provider  port.WeatherProvider
	telemetry port.Telemetry
}

func NewWeatherService(provider port.WeatherProvider, telemetry port.Telemetry) *WeatherService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &WeatherService{
		provider:  provider,
		telemetry: telemetry,
	}
}

// CurrentWeather resolves location to coordinates, then returns the summary of
// the current conditions there.
func (ws *WeatherService) CurrentWeather(ctx context.Context, location string) (string, error) {
	ctx, span := ws.telemetry.StartServiceSpan(ctx, "weather", "CurrentWeather", map[string]interface{}{
		"weather.location": location,
	})
	defer span.End()

	loc, err := ws.provider.Geocode(ctx, location)

	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(map[string]interface{}{
		"weather.lat": loc.Lat,
		"weather.lon": loc.Lon,
	})

	weather, err := ws.provider.Current(ctx, loc.Lat, loc.Lon)

	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return weather.Summary(), nil
}
