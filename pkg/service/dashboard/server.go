package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/profile"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/leyiUPM/emotion/pkg/usecase/predict"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
)

const defaultExploreMinScore = 0.5

// Server renders the dashboard pages and read APIs over one History Store
type Server struct {
	predict *predict.UseCase
	store   *history.Store
	profile *profile.Profile
}

// New creates a dashboard Server. A nil prof uses profile.Default().
func New(uc *predict.UseCase, store *history.Store, prof *profile.Profile) *Server {
	if prof == nil {
		prof = profile.Default()
	}
	return &Server{
		predict: uc,
		store:   store,
		profile: prof,
	}
}

// Register mounts the dashboard routes on mux
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /batch", s.handleBatch)
	mux.HandleFunc("POST /clear", s.handleClear)

	mux.HandleFunc("GET /api/history", s.handleAPIHistory)
	mux.HandleFunc("GET /api/stats", s.handleAPIStats)
	mux.HandleFunc("GET /api/explore", s.handleAPIExplore)

	mux.HandleFunc("GET /charts/distribution.png", s.handleDistributionChart)
	mux.HandleFunc("GET /charts/trend.png", s.handleTrendChart)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := s.newPageData(parseTab(q.Get("tab")))

	if id := q.Get("last"); id != "" {
		data.Last = s.store.Get(model.PredictionID(id))
	}
	if data.Tab == TabExplore {
		data.Explore = s.exploreView(q, s.profile.ExploreLimit)
	}

	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	threshold, topK := s.parseParams(r.PostForm)
	text := r.PostForm.Get("text")
	if strings.TrimSpace(text) == "" {
		http.Redirect(w, r, "/?tab=analyze", http.StatusSeeOther)
		return
	}

	p, err := s.predict.Submit(ctx, text, threshold, topK)
	if err != nil {
		logging.From(ctx).Warn("prediction failed", "error", err)
		data := s.newPageData(TabAnalyze)
		data.Error = predict.Message(err)
		data.Text = text
		data.Threshold, data.TopK = threshold, topK
		s.render(w, r, http.StatusBadGateway, data)
		return
	}

	http.Redirect(w, r, "/?tab=analyze&last="+url.QueryEscape(string(p.ID)), http.StatusSeeOther)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	threshold, topK := s.parseParams(r.PostForm)
	batch := r.PostForm.Get("batch")

	results, err := s.predict.SubmitBatch(ctx, predict.SplitLines(batch), threshold, topK)
	if err != nil {
		logging.From(ctx).Warn("batch failed", "error", err)
		data := s.newPageData(TabAnalyze)
		data.Error = predict.Message(err)
		data.BatchText = batch
		data.Threshold, data.TopK = threshold, topK
		s.render(w, r, http.StatusBadGateway, data)
		return
	}
	if len(results) == 0 {
		http.Redirect(w, r, "/?tab=analyze", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/?tab=dashboard", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context())
	tab := parseTab(r.FormValue("tab"))
	http.Redirect(w, r, "/?tab="+tab, http.StatusSeeOther)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	items := s.store.Items()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": s.store.Len(),
		"items": items,
	})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Summarize(s.store.Items(), s.profile.SummaryOptions()))
}

func (s *Server) handleAPIExplore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := s.profile.ExploreLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	view := s.exploreView(q, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   view.Total,
		"matched": view.Matched,
		"items":   view.Results,
	})
}

func (s *Server) handleDistributionChart(w http.ResponseWriter, r *http.Request) {
	summary := stats.Summarize(s.store.Items(), s.profile.SummaryOptions())
	if len(summary.Distribution) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := RenderDistribution(&buf, summary.Distribution); err != nil {
		logging.From(r.Context()).Error("failed to render chart", "error", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	writePNG(w, buf.Bytes())
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	summary := stats.Summarize(s.store.Items(), s.profile.SummaryOptions())
	if len(summary.Trend) == 0 || len(summary.TrendLabels) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := RenderTrend(&buf, summary.TrendLabels, summary.Trend); err != nil {
		logging.From(r.Context()).Error("failed to render chart", "error", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	writePNG(w, buf.Bytes())
}

func (s *Server) newPageData(tab string) *pageData {
	items := s.store.Items()
	data := &pageData{
		Tab:       tab,
		Threshold: s.profile.Threshold,
		TopK:      s.profile.TopK,
	}

	if tab == TabDashboard {
		data.Summary = stats.Summarize(items, s.profile.SummaryOptions())
		data.Recent = items
		if len(data.Recent) > recentOnDashboard {
			data.Recent = data.Recent[:recentOnDashboard]
		}
	}
	return data
}

func (s *Server) exploreView(q url.Values, limit int) exploreView {
	items := s.store.Items()
	opts := exploreOptions(q)
	matched := history.Explore(items, opts)

	view := exploreView{
		Query:    opts.Query,
		Label:    opts.Label,
		MinScore: opts.MinScore,
		Sort:     string(opts.Sort),
		Labels:   stats.UniqueLabels(items),
		Matched:  len(matched),
		Total:    len(items),
		Limit:    limit,
		Results:  matched,
	}
	if len(matched) > view.Limit {
		view.Results = matched[:view.Limit]
		view.Truncated = true
	}
	return view
}

func exploreOptions(q url.Values) history.ExploreOptions {
	minScore := defaultExploreMinScore
	if v, err := strconv.ParseFloat(strings.TrimSpace(q.Get("min")), 64); err == nil {
		minScore = v
	}
	return history.ExploreOptions{
		Query:    q.Get("q"),
		Label:    strings.TrimSpace(q.Get("label")),
		MinScore: minScore,
		Sort:     history.ParseSortOrder(q.Get("sort")),
	}
}

// parseParams falls back to the profile defaults for missing or unparsable values
func (s *Server) parseParams(form url.Values) (float64, int) {
	threshold := s.profile.Threshold
	if v, err := strconv.ParseFloat(strings.TrimSpace(form.Get("threshold")), 64); err == nil {
		threshold = v
	}
	topK := s.profile.TopK
	if v, err := strconv.Atoi(strings.TrimSpace(form.Get("top_k"))); err == nil {
		topK = v
	}
	return threshold, topK
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		logging.From(r.Context()).Error("failed to render page", "error", err, "tab", data.Tab)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func parseTab(tab string) string {
	switch tab {
	case TabDashboard, TabExplore:
		return tab
	default:
		return TabAnalyze
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
