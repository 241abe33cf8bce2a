package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todostore/internal/adapter/database/sqlite"
	"todostore/internal/adapter/database/sqlite/repository"
	"todostore/internal/adapter/http/handler"
	"todostore/internal/adapter/http/routes"
	"todostore/internal/core/domain"
	"todostore/internal/core/model/response"
	"todostore/internal/core/port"
	"todostore/internal/core/service"
	"todostore/internal/core/telemetry"
	. "todostore/pkg/test"
	factory "todostore/pkg/test/factory"
)

var (
	ctx       = context.Background()
	createdAt = time.Unix(1700000000, 0)
)

type TodoHandlerSuite struct {
	suite.Suite
	DB       *sqlite.DB
	TodoRepo port.TodoRepository
	Weather  *stubWeather
	Router   *gin.Engine
}

type stubWeather struct {
	location domain.Location
	weather  domain.Weather
	err      error
}

func (s *stubWeather) Geocode(_ context.Context, name string) (domain.Location, error) {
	if s.location.Name == "" {
		return domain.Location{}, domain.LocationNotFound(name)
	}

	return s.location, s.err
}

func (s *stubWeather) Current(_ context.Context, _, _ float64) (domain.Weather, error) {
	return s.weather, s.err
}

func (s *TodoHandlerSuite) SetupTest() {
	s.DB = InitTestDB()
	probe := telemetry.NewNoOpProbe()

	s.TodoRepo = repository.NewTodoRepository(s.DB, probe)
	s.Weather = &stubWeather{}

	todoSvc := service.NewTodoService(s.TodoRepo, probe).
		WithClock(func() time.Time { return createdAt })

	s.Router = routes.SetupRouterForTests(routes.HandlersConfig{
		TodoHandler:    handler.NewTodoHandler(todoSvc, nil),
		WeatherHandler: handler.NewWeatherHandler(service.NewWeatherService(s.Weather, probe), nil),
		HealthHandler:  handler.NewHealthHandler(s.TodoRepo),
	})
}

func (s *TodoHandlerSuite) TearDownTest() {
	TeardownTestDB(s.T(), s.DB)
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func (s *TodoHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request

	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

func (s *TodoHandlerSuite) createTodo(title string, done bool) domain.Todo {
	todo, err := s.TodoRepo.Create(ctx, factory.NewTodo[domain.Todo](map[string]any{
		"Title":     title,
		"Done":      done,
		"CreatedAt": createdAt.Unix(),
	}))

	s.Require().NoError(err)

	return todo
}

func decode[T any](rr *httptest.ResponseRecorder) T {
	var out T
	Expect(json.Unmarshal(rr.Body.Bytes(), &out)).To(Succeed())

	return out
}

func (s *TodoHandlerSuite) TestWorkedExample() {
	created := s.do(http.MethodPost, "/todos", `{"title": "buy milk", "description": "2%"}`)

	Expect(created.Code).To(Equal(http.StatusCreated))
	Expect(created.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	Expect(created.Body.String()).To(MatchJSON(`{"id":1,"title":"buy milk","description":"2%","done":false,"created_at":1700000000}`))

	status := s.do(http.MethodPatch, "/todos/1/done?done=true", "")
	Expect(status.Code).To(Equal(http.StatusOK))
	Expect(status.Body.String()).To(MatchJSON(`{"done":true}`))

	fetched := s.do(http.MethodGet, "/todos/1", "")
	Expect(fetched.Code).To(Equal(http.StatusOK))
	Expect(fetched.Body.String()).To(MatchJSON(`{"id":1,"title":"buy milk","description":"2%","done":true,"created_at":1700000000}`))

	deleted := s.do(http.MethodDelete, "/todos/1", "")
	Expect(deleted.Code).To(Equal(http.StatusOK))
	Expect(deleted.Body.String()).To(MatchJSON(`"ok"`))

	missing := s.do(http.MethodGet, "/todos/1", "")
	Expect(missing.Code).To(Equal(http.StatusNotFound))
	Expect(missing.Body.String()).To(MatchJSON(`{"err":"Todo item with id 1 does not exist."}`))
}

func (s *TodoHandlerSuite) TestGetAllTodos_Empty() {
	rr := s.do(http.MethodGet, "/todos", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`[]`))
}

func (s *TodoHandlerSuite) TestGetAllTodos_Filter() {
	pending := s.createTodo("pending", false)
	done := s.createTodo("done", true)

	all := decode[[]response.TodoResponse](s.do(http.MethodGet, "/todos", ""))
	Expect(all).To(HaveLen(2))
	Expect(all[0].ID).To(Equal(pending.ID))

	for _, spelling := range []string{"true", "1", "yes", "on", "TRUE"} {
		filtered := decode[[]response.TodoResponse](s.do(http.MethodGet, "/todos?done="+spelling, ""))
		Expect(filtered).To(HaveLen(1))
		Expect(filtered[0].ID).To(Equal(done.ID))
	}

	filtered := decode[[]response.TodoResponse](s.do(http.MethodGet, "/todos?done=off", ""))
	Expect(filtered).To(HaveLen(1))
	Expect(filtered[0].ID).To(Equal(pending.ID))
}

func (s *TodoHandlerSuite) TestGetAllTodos_BadFilter() {
	rr := s.do(http.MethodGet, "/todos?done=maybe", "")

	Expect(rr.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(decode[response.ErrorResponse](rr).Err).NotTo(BeEmpty())
}

func (s *TodoHandlerSuite) TestGetTodo_BadID() {
	rr := s.do(http.MethodGet, "/todos/abc", "")

	Expect(rr.Code).To(Equal(http.StatusUnprocessableEntity))
}

func (s *TodoHandlerSuite) TestCreateTodo_MissingField() {
	rr := s.do(http.MethodPost, "/todos", `{"title": "buy milk"}`)

	Expect(rr.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(rr.Body.String()).To(MatchJSON(`{"err":"description is a required field"}`))
}

func (s *TodoHandlerSuite) TestCreateTodo_EmptyFieldsAccepted() {
	rr := s.do(http.MethodPost, "/todos", `{"title": "", "description": ""}`)

	Expect(rr.Code).To(Equal(http.StatusCreated))
	Expect(decode[response.TodoResponse](rr).Title).To(BeEmpty())
}

func (s *TodoHandlerSuite) TestCreateTodo_MalformedBody() {
	Expect(s.do(http.MethodPost, "/todos", `{"title":`).Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.do(http.MethodPost, "/todos", `{"title": 5, "description": ""}`).Code).To(Equal(http.StatusUnprocessableEntity))
}

func (s *TodoHandlerSuite) TestUpdateTodo_PathIDWins() {
	todo := s.createTodo("buy milk", false)
	other := s.createTodo("other", false)

	rr := s.do(http.MethodPut, "/todos/"+itoa(todo.ID),
		`{"id": `+itoa(other.ID)+`, "title": "buy oat milk", "description": "", "done": true, "created_at": 1}`)

	Expect(rr.Code).To(Equal(http.StatusOK))

	updated := decode[response.TodoResponse](rr)
	Expect(updated.ID).To(Equal(todo.ID))
	Expect(updated.Title).To(Equal("buy oat milk"))
	Expect(updated.Done).To(BeTrue())
	Expect(updated.CreatedAt).To(Equal(createdAt.Unix()))

	untouched, _ := s.TodoRepo.GetByID(ctx, other.ID)
	Expect(untouched.Title).To(Equal("other"))
}

func (s *TodoHandlerSuite) TestUpdateTodo_NotFound() {
	rr := s.do(http.MethodPut, "/todos/42", `{"title": "x", "description": "y", "done": false}`)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(MatchJSON(`{"err":"Todo item with id 42 does not exist"}`))

	all, _ := s.TodoRepo.List(ctx, nil)
	Expect(all).To(BeEmpty())
}

func (s *TodoHandlerSuite) TestUpdateTodo_MissingDone() {
	todo := s.createTodo("buy milk", false)

	rr := s.do(http.MethodPut, "/todos/"+itoa(todo.ID), `{"title": "x", "description": "y"}`)

	Expect(rr.Code).To(Equal(http.StatusUnprocessableEntity))
}

func (s *TodoHandlerSuite) TestUpdateStatus_Errors() {
	Expect(s.do(http.MethodPatch, "/todos/1/done", "").Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.do(http.MethodPatch, "/todos/1/done?done=perhaps", "").Code).To(Equal(http.StatusUnprocessableEntity))

	missing := s.do(http.MethodPatch, "/todos/9/done?done=false", "")
	Expect(missing.Code).To(Equal(http.StatusNotFound))
	Expect(missing.Body.String()).To(MatchJSON(`{"err":"Todo item with id 9 does not exist."}`))
}

func (s *TodoHandlerSuite) TestDeleteTodo_Twice() {
	todo := s.createTodo("buy milk", false)

	Expect(s.do(http.MethodDelete, "/todos/"+itoa(todo.ID), "").Code).To(Equal(http.StatusOK))

	again := s.do(http.MethodDelete, "/todos/"+itoa(todo.ID), "")
	Expect(again.Code).To(Equal(http.StatusNotFound))
	Expect(again.Body.String()).To(MatchJSON(`{"err":"Can't delete todo item, id ` + itoa(todo.ID) + ` does not exist."}`))
}

func (s *TodoHandlerSuite) TestWeather() {
	s.Weather.location = domain.Location{Name: "Helsinki", Lat: 60.17, Lon: 24.94}
	s.Weather.weather = domain.Weather{Temperature: 21.5, Humidity: 40, Pressure: 1012, WindSpeed: 3.6}

	rr := s.do(http.MethodGet, "/weather?country=Helsinki", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`"Lämpötila: 21.5 °C Kosteus: 40 % Ilmanpaine: 1012 hPa Tuulennopeus: 3.6 m/s"`))
}

func (s *TodoHandlerSuite) TestWeather_Errors() {
	Expect(s.do(http.MethodGet, "/weather", "").Code).To(Equal(http.StatusUnprocessableEntity))

	unknown := s.do(http.MethodGet, "/weather?country=Atlantis", "")
	Expect(unknown.Code).To(Equal(http.StatusNotFound))
	Expect(unknown.Body.String()).To(MatchJSON(`{"err":"Location Atlantis could not be found."}`))

	s.Weather.location = domain.Location{Name: "Oulu"}
	s.Weather.err = errors.New("weather current returned status 401")

	failed := s.do(http.MethodGet, "/weather?country=Oulu", "")
	Expect(failed.Code).To(Equal(http.StatusInternalServerError))
	Expect(failed.Body.String()).To(MatchJSON(`{"err":"weather current returned status 401"}`))
}

func (s *TodoHandlerSuite) TestHealth() {
	rr := s.do(http.MethodGet, "/healthz", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`{"status":"ok"}`))

	s.DB.Close()

	Expect(s.do(http.MethodGet, "/healthz", "").Code).To(Equal(http.StatusServiceUnavailable))

	s.DB = nil
}

func (s *TodoHandlerSuite) TestTodoEndpoints_StoreFailure() {
	todo := s.createTodo("Buy milk", false)
	path := "/todos/" + itoa(todo.ID)

	s.DB.Close()

	requests := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/todos", ""},
		{http.MethodGet, path, ""},
		{http.MethodPost, "/todos", `{"title":"Call mom","description":"","done":false}`},
		{http.MethodPut, path, `{"title":"Buy oat milk","description":"","done":true}`},
		{http.MethodPatch, path + "/done?done=true", ""},
		{http.MethodDelete, path, ""},
	}

	for _, r := range requests {
		rr := s.do(r.method, r.target, r.body)

		Expect(rr.Code).To(Equal(http.StatusInternalServerError), r.method+" "+r.target)
		Expect(rr.Body.String()).To(MatchJSON(`{"err":"sql: database is closed"}`), r.method+" "+r.target)
	}

	s.DB = nil
}

func (s *TodoHandlerSuite) TestPreflight() {
	rr := s.do(http.MethodOptions, "/todos/1", "")

	Expect(rr.Code).To(Equal(http.StatusNoContent))
	Expect(rr.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
