package api

import (
	"errors"
	"net/http"

	"github.com/knowledge-engine/recommender/internal/engine"
)

type pageData struct {
	Restaurants     []string
	Selected        string
	Query           string
	Recommendations []RecommendationView
	Error           string
}

// handleIndex renders the recommendation page. POST reads the form, GET
// reads the same fields from the query string.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{}

	eng, err := s.Holder.Load()
	if err != nil {
		data.Error = offlineMessage
		s.renderPage(w, http.StatusServiceUnavailable, data)
		return
	}
	data.Restaurants = eng.ItemNames()

	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid form submission."
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}
	data.Selected = r.Form.Get("restaurant_name")
	data.Query = r.Form.Get("taste_query")

	views, _, err := s.recommend(r.Context(), engine.Request{Name: data.Selected, Query: data.Query})
	switch {
	case errors.Is(err, engine.ErrUnknownItem):
		data.Error = "We don't know that restaurant yet."
	case err != nil:
		data.Error = err.Error()
	default:
		data.Recommendations = views
	}
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) renderPage(w http.ResponseWriter, code int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.page.Execute(w, data); err != nil {
		s.Logger.WithError(err).Error("Failed to render page")
	}
}

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Restaurant Recommender</title>
</head>
<body>
<h1>Find your next restaurant</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Restaurants}}
<form method="post" action="/">
  <label for="restaurant_name">Similar to</label>
  <select id="restaurant_name" name="restaurant_name">
    <option value="">-- choose a restaurant --</option>
    {{range .Restaurants}}<option value="{{.}}"{{if eq . $.Selected}} selected{{end}}>{{.}}</option>
    {{end}}
  </select>
  <label for="taste_query">or describe what you like</label>
  <input id="taste_query" name="taste_query" type="text" value="{{.Query}}">
  <button type="submit">Recommend</button>
</form>
{{end}}
{{if .Recommendations}}
<table class="recommendations">
  <thead><tr><th>Restaurant</th><th>Tags</th><th>Score</th></tr></thead>
  <tbody>
  {{range .Recommendations}}<tr><td>{{.Name}}</td><td>{{.Tags}}</td><td>{{printf "%.3f" .Score}}</td></tr>
  {{end}}
  </tbody>
</table>
{{end}}
</body>
</html>
`
