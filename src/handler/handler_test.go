package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/pondermatic/strategy11-challenge/src/metrics"
	"github.com/pondermatic/strategy11-challenge/src/repository"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upstreamURL = "https://challenge.test/wp-json/challenge/v1/1"
	apiSecret   = "test-api-secret"
	validBody   = `{"title":"People","data":{"headers":["ID","First Name","Last Name","Email","Date"],"rows":{
		"1":{"id":71,"fname":"Liam","lname":"Neeson","email":"skills@test.com","date":13626000},
		"2":{"id":90,"fname":"Shean","lname":"Connery","email":"bond@test.com","date":13626900},
		"3":{"id":56,"fname":"Jason","lname":"Statham","email":"FrankMartin@test.com","date":13626970}}}}`
)

type testServer struct {
	router  *gin.Engine
	service *service.ChallengeService
	mock    *httpmock.MockTransport
}

func newTestServer(t *testing.T, body string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, upstreamURL, httpmock.NewStringResponder(http.StatusOK, body))

	validator, err := service.NewSchemaValidator()
	require.NoError(t, err)
	nonce, err := service.NewNonceIssuer("nonce-secret-for-tests", time.Hour)
	require.NoError(t, err)
	events := service.NewDispatcher()
	metricsManager := metrics.NewManager()
	metricsManager.Subscribe(events)

	svc := service.NewChallengeService(
		service.ChallengeConfig{},
		repository.NewMemoryTransientStore(),
		service.NewRemoteFetcher(&http.Client{Transport: mock}, upstreamURL),
		validator,
		nonce,
		events,
	)

	router := gin.New()
	RegisterRoutes(context.Background(), router, Routes{
		RouteNamespace:   service.DefaultRouteNamespace,
		APISecret:        apiSecret,
		AdminUser:        "admin",
		AdminPassword:    "password",
		Lang:             "en",
		ChallengeService: svc,
		Presenter:        service.NewTablePresenter("en"),
		Metrics:          metricsManager,
	})

	return &testServer{router: router, service: svc, mock: mock}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGetChallenge(t *testing.T) {
	s := newTestServer(t, validBody)

	w := s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, validBody, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.mock.GetTotalCallCount())
}

func TestGetChallenge_SchemaError(t *testing.T) {
	s := newTestServer(t, strings.Replace(validBody, `"id":71`, `"id":"71"`, 1))

	w := s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1008, resp.Code)
	assert.Equal(t, "The fetched user data did not pass JSON schema validation tests.", resp.Message)
	assert.Equal(t, map[string]string{
		"json_pointer": "/data/rows/1/id",
		"message":      "The data (string) must match the type: integer",
	}, resp.Data)
}

func TestGetChallenge_UpstreamDown(t *testing.T) {
	s := newTestServer(t, validBody)
	s.mock.RegisterResponder(http.MethodGet, upstreamURL, httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	w := s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"code":1006`)
}

func TestClearCache(t *testing.T) {
	const path = "/pondermatic-strategy11/v1/challenge/cache"

	t.Run("forbidden without credentials", func(t *testing.T) {
		s := newTestServer(t, validBody)
		w := s.do(httptest.NewRequest(http.MethodDelete, path, nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"cleared":false}`, w.Body.String())
	})

	t.Run("wrong api secret", func(t *testing.T) {
		s := newTestServer(t, validBody)
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("X-API-Secret", "nope")
		w := s.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("api secret", func(t *testing.T) {
		s := newTestServer(t, validBody)
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("X-API-Secret", apiSecret)
		w := s.do(req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cleared":true}`, w.Body.String())
	})

	t.Run("nonce", func(t *testing.T) {
		s := newTestServer(t, validBody)
		s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))

		token, err := s.service.ClearCacheNonce()
		require.NoError(t, err)
		w := s.do(httptest.NewRequest(http.MethodDelete, path+"?_wpnonce="+url.QueryEscape(token), nil))
		assert.Equal(t, http.StatusOK, w.Code)

		s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
		assert.Equal(t, 2, s.mock.GetTotalCallCount())
	})
}

func TestOperatorRoutes(t *testing.T) {
	s := newTestServer(t, validBody)
	s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))

	w := s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge/status", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge/status", nil)
	req.Header.Set("X-API-Secret", apiSecret)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ChallengeStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pondermatic-strategy11/v1/challenge", resp.Data.CacheKey)
	assert.True(t, resp.Data.Cached)
	assert.Equal(t, int64(3600), resp.Data.TTL)
	assert.NotNil(t, resp.Data.LastCall)

	req = httptest.NewRequest(http.MethodDelete, "/pondermatic-strategy11/v1/challenge/last-call", nil)
	req.Header.Set("X-API-Secret", apiSecret)
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	last, err := s.service.LastCall(context.Background())
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestAdminPage(t *testing.T) {
	t.Run("requires basic auth", func(t *testing.T) {
		s := newTestServer(t, validBody)
		w := s.do(httptest.NewRequest(http.MethodGet, "/admin/challenge", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("renders sorted table with refresh link", func(t *testing.T) {
		s := newTestServer(t, validBody)
		req := httptest.NewRequest(http.MethodGet, "/admin/challenge?orderby=lname&order=asc", nil)
		req.SetBasicAuth("admin", "password")
		w := s.do(req)
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "People")
		assert.Contains(t, body, "action=refresh")
		assert.Contains(t, body, "_wpnonce=")
		assert.Less(t, strings.Index(body, "Connery"), strings.Index(body, "Neeson"))
		assert.Less(t, strings.Index(body, "Neeson"), strings.Index(body, "Statham"))
		assert.Contains(t, body, "June 7, 1970 5:00 pm")
	})

	t.Run("refresh clears and redirects", func(t *testing.T) {
		s := newTestServer(t, validBody)
		s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))

		token, err := s.service.ClearCacheNonce()
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet,
			"/admin/challenge?orderby=email&order=desc&action=refresh&_wpnonce="+url.QueryEscape(token), nil)
		req.SetBasicAuth("admin", "password")
		w := s.do(req)

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/challenge?order=desc&orderby=email", w.Header().Get("Location"))

		cached, err := s.service.IsCached(context.Background())
		require.NoError(t, err)
		assert.False(t, cached)
	})

	t.Run("refresh with expired nonce", func(t *testing.T) {
		s := newTestServer(t, validBody)
		req := httptest.NewRequest(http.MethodGet, "/admin/challenge?action=refresh&_wpnonce=bogus", nil)
		req.SetBasicAuth("admin", "password")
		w := s.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The link you followed has expired.")
	})
}

func TestShortcodePage(t *testing.T) {
	s := newTestServer(t, strings.Replace(validBody, `"id":71,`, ``, 1))

	w := s.do(httptest.NewRequest(http.MethodGet, "/challenge", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `<br>JSON path: "/data/rows/1"<br>`)
	assert.Contains(t, body, "The required properties (id) are missing")
	assert.Contains(t, body, "No items found.")
	assert.NotContains(t, body, "action=refresh")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, validBody)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())

	s.do(httptest.NewRequest(http.MethodGet, "/pondermatic-strategy11/v1/challenge", nil))
	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "psc_challenge_cache_misses_total 1")
}
