package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/recommender/internal/cache"
	"github.com/knowledge-engine/recommender/internal/catalog"
	"github.com/knowledge-engine/recommender/internal/engine"
	"github.com/knowledge-engine/recommender/internal/metrics"
)

const (
	cacheHeader    = "X-Cache-Hit"
	offlineMessage = "Recommendation engine is offline. Please check server data files."
)

type Server struct {
	Holder *engine.Holder
	Cache  cache.Cache
	Logger *logrus.Entry
	Router chi.Router

	rebuild  engine.BuildFunc
	page     *template.Template
	validate *validator.Validate
}

// NewServer wires the routes. rebuild may be nil, which disables reloads.
func NewServer(holder *engine.Holder, c cache.Cache, rebuild engine.BuildFunc, logger *logrus.Entry) *Server {
	if c == nil {
		c = cache.NopCache{}
	}
	s := &Server{
		Holder:   holder,
		Cache:    c,
		Logger:   logger,
		Router:   chi.NewRouter(),
		rebuild:  rebuild,
		page:     template.Must(template.New("index").Parse(indexTemplate)),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Use(chimiddleware.Recoverer)
	s.Router.Use(requestLogger(s.Logger))

	s.Router.Get("/", s.handleIndex)
	s.Router.Post("/", s.handleIndex)
	s.Router.Handle("/metrics", promhttp.Handler())

	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommendations", s.handleRecommend)
		r.Post("/recommendations", s.handleRecommend)
		r.Get("/restaurants", s.handleRestaurants)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Infof("Starting API Server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Logger.Info("Shutting down API Server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type RecommendRequest struct {
	Name  string `json:"name" validate:"max=256"`
	Query string `json:"query" validate:"max=2048"`
}

type RecommendationView struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Tags       string            `json:"tags"`
	Score      float64           `json:"score"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type RecommendResponse struct {
	Mode    engine.Mode          `json:"mode"`
	Name    string               `json:"name,omitempty"`
	Query   string               `json:"query,omitempty"`
	Results []RecommendationView `json:"results"`
}

type RestaurantsResponse struct {
	Names []string `json:"names"`
}

type StatusResponse struct {
	Online bool          `json:"online"`
	Engine *engine.Stats `json:"engine,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Handlers

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
			return
		}
	} else {
		req.Name = r.URL.Query().Get("name")
		req.Query = r.URL.Query().Get("q")
	}
	if err := s.validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Request parameters too long"})
		return
	}

	ereq := engine.Request{Name: req.Name, Query: req.Query}
	mode := ereq.Mode()
	resp := RecommendResponse{Mode: mode}
	switch mode {
	case engine.ModeText:
		resp.Query = req.Query
	case engine.ModeName:
		resp.Name = req.Name
	}

	views, hit, err := s.recommend(r.Context(), ereq)
	if hit {
		w.Header().Set(cacheHeader, "true")
	}
	switch {
	case errors.Is(err, engine.ErrOffline):
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: offlineMessage})
		return
	case errors.Is(err, engine.ErrUnknownItem):
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp.Results = views
	jsonResponse(w, http.StatusOK, resp)
}

// recommend runs a query through the response cache. The bool reports
// a cache hit.
func (s *Server) recommend(ctx context.Context, req engine.Request) ([]RecommendationView, bool, error) {
	start := time.Now()
	mode := req.Mode()

	eng, err := s.Holder.Load()
	if err != nil {
		metrics.RecordQuery(string(mode), "offline", time.Since(start).Seconds())
		return nil, false, err
	}
	if mode == engine.ModeNone {
		metrics.RecordQuery(string(mode), "ok", time.Since(start).Seconds())
		return []RecommendationView{}, false, nil
	}

	key := cache.Key(eng.Stats().Signature, string(mode), cacheInput(req))
	if cached, ok, err := s.Cache.Get(ctx, key); err != nil {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		s.Logger.WithError(err).Warn("Cache read failed")
	} else if ok {
		var views []RecommendationView
		if err := json.Unmarshal(cached, &views); err == nil {
			metrics.CacheHits.Inc()
			metrics.RecordQuery(string(mode), "ok", time.Since(start).Seconds())
			return views, true, nil
		}
	}
	metrics.CacheMisses.Inc()

	recs, err := eng.Recommend(req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, engine.ErrUnknownItem) {
			outcome = "unknown_item"
		}
		metrics.RecordQuery(string(mode), outcome, time.Since(start).Seconds())
		return nil, false, err
	}

	views := toViews(recs)
	if payload, err := json.Marshal(views); err == nil {
		if err := s.Cache.Set(ctx, key, payload); err != nil {
			metrics.CacheErrors.WithLabelValues("set").Inc()
			s.Logger.WithError(err).Warn("Cache write failed")
		}
	}
	metrics.RecordQuery(string(mode), "ok", time.Since(start).Seconds())
	return views, false, nil
}

func cacheInput(req engine.Request) string {
	if req.Mode() == engine.ModeText {
		return strings.ToLower(strings.TrimSpace(req.Query))
	}
	return catalog.NormalizeKey(req.Name)
}

func toViews(recs []engine.Recommendation) []RecommendationView {
	views := make([]RecommendationView, len(recs))
	for i, rec := range recs {
		views[i] = RecommendationView{
			ID:         rec.Item.ID,
			Name:       rec.Item.Name,
			Tags:       rec.Item.Tags,
			Score:      rec.Score,
			Attributes: rec.Item.Attributes,
		}
	}
	return views
}

func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Holder.Load()
	if err != nil {
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: offlineMessage})
		return
	}
	jsonResponse(w, http.StatusOK, RestaurantsResponse{Names: eng.ItemNames()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	eng, err := s.Holder.Load()
	if err != nil {
		resp := StatusResponse{Online: false, Error: offlineMessage}
		if lastErr := s.Holder.LastError(); lastErr != nil {
			resp.Error = lastErr.Error()
		}
		jsonResponse(w, http.StatusOK, resp)
		return
	}
	stats := eng.Stats()
	jsonResponse(w, http.StatusOK, StatusResponse{Online: true, Engine: &stats})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.rebuild == nil {
		jsonResponse(w, http.StatusNotImplemented, ErrorResponse{Error: "Reload is not configured"})
		return
	}

	eng, err := s.Holder.Rebuild(r.Context(), s.rebuild)
	if err != nil {
		s.Logger.WithError(err).Error("Engine reload failed")
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	stats := eng.Stats()
	s.Logger.WithField("items", stats.Items).Info("Engine reloaded")
	jsonResponse(w, http.StatusOK, StatusResponse{Online: true, Engine: &stats})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
