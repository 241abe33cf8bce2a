package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"todostore/internal/core/domain"
	"todostore/internal/core/port"
	tel "todostore/internal/core/telemetry"
)

const provider = "openweathermap"

type Config struct {
	APIKey        string
	GeoURL        string
	APIURL        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client talks to the OpenWeatherMap geocoding and current weather APIs.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	telemetry  port.Telemetry
}

type geocodeResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type currentResult struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func NewClient(config Config, telemetry port.Telemetry) *Client {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	limit := rate.Inf
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}

	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:   rate.NewLimiter(limit, burst),
		telemetry: telemetry,
	}
}

func (c *Client) Geocode(ctx context.Context, name string) (domain.Location, error) {
	query := url.Values{}
	query.Set("q", name)
	query.Set("limit", "1")
	query.Set("appid", c.config.APIKey)

	var results []geocodeResult

	if err := c.get(ctx, "geocode", c.config.GeoURL+"/geo/1.0/direct", query, &results); err != nil {
		return domain.Location{}, err
	}

	if len(results) == 0 {
		return domain.Location{}, domain.LocationNotFound(name)
	}

	return domain.Location{
		Name:    results[0].Name,
		Country: results[0].Country,
		Lat:     results[0].Lat,
		Lon:     results[0].Lon,
	}, nil
}

func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.Weather, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("units", "metric")
	query.Set("appid", c.config.APIKey)

	var result currentResult

	if err := c.get(ctx, "current", c.config.APIURL+"/data/2.5/weather", query, &result); err != nil {
		return domain.Weather{}, err
	}

	return domain.Weather{
		Temperature: result.Main.Temp,
		Humidity:    result.Main.Humidity,
		Pressure:    result.Main.Pressure,
		WindSpeed:   result.Wind.Speed,
	}, nil
}

func (c *Client) get(ctx context.Context, operation, endpoint string, query url.Values, out any) (err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("weather %s throttled: %w", operation, err)
	}

	startTime := time.Now()
	defer func() {
		c.telemetry.RecordUpstreamCall(ctx, provider, operation, time.Since(startTime), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather %s request failed: %w", operation, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("weather %s returned status %d", operation, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("weather %s returned a malformed body: %w", operation, err)
	}

	return nil
}

// redact drops the request URL, which carries the API key, from transport errors.
func redact(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}

	return err
}
