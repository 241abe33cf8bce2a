package openweather_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todostore/internal/adapter/weather/openweather"
	"todostore/internal/core/domain"
)

type ClientTestSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *openweather.Client
	geocode  string
	current  string
	status   int
	requests []*http.Request
}

func (s *ClientTestSuite) SetupTest() {
	s.geocode = `[{"name":"Helsinki","country":"FI","lat":60.1699,"lon":24.9384}]`
	s.current = `{"main":{"temp":21.5,"humidity":40,"pressure":1012},"wind":{"speed":3.6}}`
	s.status = http.StatusOK
	s.requests = nil

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests = append(s.requests, r)
		w.WriteHeader(s.status)

		switch r.URL.Path {
		case "/geo/1.0/direct":
			_, _ = w.Write([]byte(s.geocode))
		case "/data/2.5/weather":
			_, _ = w.Write([]byte(s.current))
		}
	}))

	s.client = openweather.NewClient(openweather.Config{
		APIKey:  "test-key",
		GeoURL:  s.server.URL,
		APIURL:  s.server.URL,
		Timeout: time.Second,
	}, nil)
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func TestClientTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TestGeocode() {
	loc, err := s.client.Geocode(context.Background(), "Helsinki")

	Expect(err).To(BeNil())
	Expect(loc).To(Equal(domain.Location{Name: "Helsinki", Country: "FI", Lat: 60.1699, Lon: 24.9384}))

	query := s.requests[0].URL.Query()
	Expect(query.Get("q")).To(Equal("Helsinki"))
	Expect(query.Get("limit")).To(Equal("1"))
	Expect(query.Get("appid")).To(Equal("test-key"))
}

func (s *ClientTestSuite) TestGeocode_EmptyResult() {
	s.geocode = `[]`

	_, err := s.client.Geocode(context.Background(), "Atlantis")

	Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
	Expect(err.Error()).To(Equal("Location Atlantis could not be found."))
}

func (s *ClientTestSuite) TestCurrent() {
	weather, err := s.client.Current(context.Background(), 60.1699, 24.9384)

	Expect(err).To(BeNil())
	Expect(weather.Summary()).To(Equal("Lämpötila: 21.5 °C Kosteus: 40 % Ilmanpaine: 1012 hPa Tuulennopeus: 3.6 m/s"))

	query := s.requests[0].URL.Query()
	Expect(query.Get("lat")).To(Equal("60.1699"))
	Expect(query.Get("lon")).To(Equal("24.9384"))
	Expect(query.Get("units")).To(Equal("metric"))
}

func (s *ClientTestSuite) TestUpstreamStatusError() {
	s.status = http.StatusUnauthorized

	_, err := s.client.Current(context.Background(), 1, 2)

	Expect(err).To(MatchError("weather current returned status 401"))
	Expect(errors.Is(err, domain.ErrNotFound)).To(BeFalse())
}

func (s *ClientTestSuite) TestMalformedBody() {
	s.current = `{"main":`

	_, err := s.client.Current(context.Background(), 1, 2)

	Expect(err).To(MatchError(ContainSubstring("malformed body")))
}

func (s *ClientTestSuite) TestTransportErrorHidesAPIKey() {
	s.server.Close()

	_, err := s.client.Geocode(context.Background(), "Helsinki")

	Expect(err).NotTo(BeNil())
	Expect(err.Error()).NotTo(ContainSubstring("test-key"))
}

func (s *ClientTestSuite) TestThrottleHonorsCancellation() {
	client := openweather.NewClient(openweather.Config{
		GeoURL:        s.server.URL,
		APIURL:        s.server.URL,
		Timeout:       time.Second,
		RatePerSecond: 0.001,
		Burst:         1,
	}, nil)

	_, err := client.Current(context.Background(), 1, 2)
	Expect(err).To(BeNil())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = client.Current(ctx, 1, 2)
	Expect(err).To(MatchError(ContainSubstring("throttled")))
	Expect(s.requests).To(HaveLen(1))
}
