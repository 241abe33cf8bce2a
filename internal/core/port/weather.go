package port

import (
	"context"

	"todostore/internal/core/domain"
)

// WeatherProvider is the upstream weather API.
type WeatherProvider interface {
	// Geocode returns the best match for name, or domain.ErrNotFound when there is none.
	Geocode(ctx context.Context, name string) (domain.Location, error)
	Current(ctx context.Context, lat, lon float64) (domain.Weather, error)
}

type WeatherService interface {
	CurrentWeather(ctx context.Context, location string) (string, error)
}
