package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/recommender/internal/api"
	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/engine"
)

// Mocks

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var val []byte
	if v := args.Get(0); v != nil {
		val = v.([]byte)
	}
	return val, args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func exampleEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cat, err := catalog.New([]catalog.Row{
		{Name: "Pasta Palace", Tags: "italian pasta romantic", Attributes: map[string]string{"Location": "Downtown"}},
		{Name: "Sushi Go", Tags: "japanese sushi casual"},
		{Name: "Pasta House", Tags: "italian pasta casual"},
	})
	require.NoError(t, err)
	eng, err := engine.Build(cat, engine.Options{}, nil)
	require.NoError(t, err)
	return eng
}

func setupServer(t *testing.T, eng *engine.Engine) (*api.Server, *MockCache) {
	logger := logrus.New().WithField("test", "api")
	mockCache := new(MockCache)
	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil).Maybe()
	mockCache.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil).Maybe()

	server := api.NewServer(engine.NewHolder(eng), mockCache, nil, logger)
	return server, mockCache
}

func serve(server *api.Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func decodeRecommendations(t *testing.T, rr *httptest.ResponseRecorder) api.RecommendResponse {
	t.Helper()
	var resp api.RecommendResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleStatus(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Online)
	require.NotNil(t, resp.Engine)
	assert.Equal(t, 3, resp.Engine.Items)
}

func TestHandleStatus_Offline(t *testing.T) {
	server, _ := setupServer(t, nil)
	server.Holder.SetError(errors.New("catalog data unavailable: csv:missing.csv"))

	rr := serve(server, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Online)
	assert.Contains(t, resp.Error, "missing.csv")
}

func TestHandleRestaurants(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/restaurants", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp api.RestaurantsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Pasta House", "Pasta Palace", "Sushi Go"}, resp.Names)
}

func TestHandleRecommend_ByName(t *testing.T) {
	server, mockCache := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name=%20pasta%20palace%20", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decodeRecommendations(t, rr)
	assert.Equal(t, engine.ModeName, resp.Mode)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Pasta House", resp.Results[0].Name)
	assert.Equal(t, "Sushi Go", resp.Results[1].Name)

	mockCache.AssertCalled(t, "Set", mock.Anything, mock.AnythingOfType("string"), mock.Anything)
}

func TestHandleRecommend_ByText(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name=Sushi+Go&q=italian+food", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decodeRecommendations(t, rr)
	assert.Equal(t, engine.ModeText, resp.Mode)
	assert.Equal(t, "italian food", resp.Query)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "Sushi Go", resp.Results[2].Name)
}

func TestHandleRecommend_Post(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodPost, "/api/v1/recommendations", `{"name": "Sushi Go"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeRecommendations(t, rr)
	assert.Len(t, resp.Results, 2)

	rr = serve(server, http.MethodPost, "/api/v1/recommendations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleRecommend_NothingRequested(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/recommendations", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decodeRecommendations(t, rr)
	assert.Equal(t, engine.ModeNone, resp.Mode)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestHandleRecommend_UnknownItem(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name=Burger+Barn", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown item")
}

func TestHandleRecommend_Offline(t *testing.T) {
	server, _ := setupServer(t, nil)

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name=Sushi+Go", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "offline")

	rr = serve(server, http.MethodGet, "/api/v1/restaurants", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandleRecommend_TooLong(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name="+strings.Repeat("a", 300), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleRecommend_CacheHit(t *testing.T) {
	logger := logrus.New().WithField("test", "api")
	mockCache := new(MockCache)
	cached := []byte(`[{"id":7,"name":"Cached Cafe","tags":"coffee","score":0.5}]`)
	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(cached, true, nil)

	server := api.NewServer(engine.NewHolder(exampleEngine(t)), mockCache, nil, logger)

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?name=Sushi+Go", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("X-Cache-Hit"))

	resp := decodeRecommendations(t, rr)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Cached Cafe", resp.Results[0].Name)
	mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRecommend_CacheKeyFollowsBuild(t *testing.T) {
	cat, err := catalog.New([]catalog.Row{
		{Name: "Pasta Palace", Tags: "italian pasta romantic", Attributes: map[string]string{"Location": "Downtown"}},
		{Name: "Sushi Go", Tags: "japanese sushi casual"},
		{Name: "Pasta House", Tags: "italian pasta casual"},
	})
	require.NoError(t, err)
	moved, err := catalog.New([]catalog.Row{
		{Name: "Pasta Palace", Tags: "italian pasta romantic", Attributes: map[string]string{"Location": "Harbor"}},
		{Name: "Sushi Go", Tags: "japanese sushi casual"},
		{Name: "Pasta House", Tags: "italian pasta casual"},
	})
	require.NoError(t, err)

	keyFor := func(cat *catalog.Catalog, opts engine.Options) string {
		eng, err := engine.Build(cat, opts, nil)
		require.NoError(t, err)
		server, mockCache := setupServer(t, eng)

		rr := serve(server, http.MethodGet, "/api/v1/recommendations?q=italian", "")
		require.Equal(t, http.StatusOK, rr.Code)
		for _, call := range mockCache.Calls {
			if call.Method == "Set" {
				return call.Arguments.String(1)
			}
		}
		t.Fatal("no cache write")
		return ""
	}

	base := keyFor(cat, engine.Options{})
	assert.Equal(t, base, keyFor(cat, engine.Options{}))
	assert.NotEqual(t, base, keyFor(moved, engine.Options{}))
	assert.NotEqual(t, base, keyFor(cat, engine.Options{TopK: 1}))
	assert.NotEqual(t, base, keyFor(cat, engine.Options{StopWords: []string{"romantic"}}))
}

func TestHandleRecommend_CacheErrorFallsThrough(t *testing.T) {
	logger := logrus.New().WithField("test", "api")
	mockCache := new(MockCache)
	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, errors.New("redis down"))
	mockCache.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(errors.New("redis down"))

	server := api.NewServer(engine.NewHolder(exampleEngine(t)), mockCache, nil, logger)

	rr := serve(server, http.MethodGet, "/api/v1/recommendations?q=sushi", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeRecommendations(t, rr)
	assert.Equal(t, "Sushi Go", resp.Results[0].Name)
}

func TestHandleReload(t *testing.T) {
	logger := logrus.New().WithField("test", "api")
	replacement := exampleEngine(t)
	rebuild := func(ctx context.Context) (*engine.Engine, error) {
		return replacement, nil
	}
	holder := engine.NewHolder(nil)
	server := api.NewServer(holder, nil, rebuild, logger)

	rr := serve(server, http.MethodPost, "/api/v1/reload", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	current, err := holder.Load()
	require.NoError(t, err)
	assert.Same(t, replacement, current)
}

func TestHandleReload_NotConfigured(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodPost, "/api/v1/reload", "")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestHandleReload_Failure(t *testing.T) {
	logger := logrus.New().WithField("test", "api")
	original := exampleEngine(t)
	holder := engine.NewHolder(original)
	server := api.NewServer(holder, nil, func(ctx context.Context) (*engine.Engine, error) {
		return nil, catalog.ErrDataUnavailable
	}, logger)

	rr := serve(server, http.MethodPost, "/api/v1/reload", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	current, err := holder.Load()
	require.NoError(t, err)
	assert.Same(t, original, current)
}

func TestHandleIndex(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<option value="Pasta Palace">`)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("restaurant_name=Pasta+Palace&taste_query="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="Pasta Palace" selected>`)
	assert.Contains(t, body, "<td>Pasta House</td>")
	assert.NotContains(t, body, "<td>Pasta Palace</td>")
}

func TestHandleIndex_Errors(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))

	rr := serve(server, http.MethodGet, "/?restaurant_name=Nowhere", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "We don&#39;t know that restaurant yet.")

	offline, _ := setupServer(t, nil)
	rr = serve(offline, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "Recommendation engine is offline")
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupServer(t, exampleEngine(t))
	serve(server, http.MethodGet, "/api/v1/recommendations?q=pasta", "")

	rr := serve(server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "recommender_queries_total")
}
