package dashboard

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/stats"
)

const (
	TabAnalyze   = "analyze"
	TabDashboard = "dashboard"
	TabExplore   = "explore"

	recentOnDashboard = 8
	labelsPerRow      = 6
)

type exploreView struct {
	Query     string
	Label     string
	MinScore  float64
	Sort      string
	Labels    []string
	Results   []*model.Prediction
	Matched   int
	Total     int
	Limit     int
	Truncated bool
}

type pageData struct {
	Tab   string
	Error string

	Text      string
	BatchText string
	Threshold float64
	TopK      int
	Last      *model.Prediction

	Summary *stats.Summary
	Recent  []*model.Prediction

	Explore exploreView
}

var pageFuncs = template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	"one":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"when":  func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
	"firstLabels": func(counts []stats.LabelCount, n int) string {
		if len(counts) == 0 {
			return "-"
		}
		if n > 0 && len(counts) > n {
			counts = counts[:n]
		}
		labels := make([]string, len(counts))
		for i, c := range counts {
			labels[i] = c.Label
		}
		return strings.Join(labels, ", ")
	},
	"clip": func(ls []model.LabelScore) []model.LabelScore {
		if len(ls) > labelsPerRow {
			return ls[:labelsPerRow]
		}
		return ls
	},
}

var pageTmpl = template.Must(template.New("page").Funcs(pageFuncs).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Emotion Insight</title>
<style>
:root {
  --bg: #020617;
  --card: #0f172a;
  --border: #1e293b;
  --text: #f1f5f9;
  --muted: #94a3b8;
  --accent: #f1f5f9;
  --warn-bg: #451a03;
  --warn-text: #fde68a;
}
* { box-sizing: border-box; }
body { margin: 0; background: var(--bg); color: var(--text); font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.5; }
.container { max-width: 1200px; margin: 0 auto; padding: 32px 24px; }
h1 { font-size: 24px; margin: 0; }
.sub { color: var(--muted); font-size: 13px; }
.tabs { display: flex; gap: 8px; margin: 24px 0; }
.tabs a { padding: 6px 14px; border-radius: 12px; border: 1px solid var(--border); color: var(--text); text-decoration: none; font-size: 13px; }
.tabs a.active { background: var(--accent); color: var(--bg); font-weight: 600; }
.grid { display: grid; gap: 20px; }
.grid-2 { grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); }
.grid-4 { grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); }
.card { background: var(--card); border: 1px solid var(--border); border-radius: 16px; padding: 18px; }
.card h2 { font-size: 14px; margin: 0 0 4px; }
.kpi { font-size: 28px; font-weight: 600; }
.label { font-size: 12px; font-weight: 600; color: #cbd5e1; margin-top: 12px; }
textarea, input, select { width: 100%; background: #020617; color: var(--text); border: 1px solid var(--border); border-radius: 10px; padding: 8px; font-size: 13px; }
textarea { height: 120px; }
.row { display: flex; gap: 12px; align-items: center; flex-wrap: wrap; margin-top: 10px; }
.row label { font-size: 12px; color: #cbd5e1; display: flex; gap: 6px; align-items: center; }
.row input { width: 80px; }
button { background: var(--accent); color: var(--bg); border: 0; border-radius: 10px; padding: 8px 14px; font-weight: 600; cursor: pointer; }
button.ghost { background: transparent; color: var(--text); border: 1px solid #334155; font-weight: 400; }
.pill { display: inline-block; border: 1px solid #334155; border-radius: 999px; padding: 2px 10px; font-size: 12px; margin: 2px; }
.pill b { color: var(--text); }
.banner { background: var(--warn-bg); color: var(--warn-text); border-radius: 12px; padding: 10px 14px; font-size: 13px; margin-bottom: 16px; }
.item { border: 1px solid var(--border); border-radius: 14px; padding: 12px; margin-bottom: 10px; }
.muted { color: var(--muted); font-size: 13px; }
img.chart { width: 100%; border-radius: 10px; background: #fff; }
</style>
</head>
<body>
<div class="container">
  <h1>Emotion Insight</h1>
  <div class="sub">Multi-label emotion predictions over your comments</div>

  <nav class="tabs">
    <a href="/?tab=analyze" {{ if eq .Tab "analyze" }}class="active"{{ end }}>Analyze</a>
    <a href="/?tab=dashboard" {{ if eq .Tab "dashboard" }}class="active"{{ end }}>Dashboard</a>
    <a href="/?tab=explore" {{ if eq .Tab "explore" }}class="active"{{ end }}>Explore</a>
  </nav>

  {{ if .Error }}<div class="banner" id="error">{{ .Error }}</div>{{ end }}

  {{ if eq .Tab "analyze" }}
  <div class="grid grid-2">
    <div class="card">
      <h2>Analyze feedback</h2>
      <div class="sub">Run emotion detection on a single comment, or batch multiple lines</div>
      <form method="post" action="/analyze">
        <div class="label">Single comment</div>
        <textarea name="text">{{ .Text }}</textarea>
        <div class="row">
          <label>Threshold <input type="number" name="threshold" step="0.05" min="0" max="1" value="{{ .Threshold }}"></label>
          <label>Top K <input type="number" name="top_k" step="1" min="1" max="20" value="{{ .TopK }}"></label>
          <button type="submit">Run</button>
        </div>
      </form>
      <form method="post" action="/batch">
        <div class="label">Batch (one comment per line)</div>
        <textarea name="batch">{{ .BatchText }}</textarea>
        <input type="hidden" name="threshold" value="{{ .Threshold }}">
        <input type="hidden" name="top_k" value="{{ .TopK }}">
        <div class="row"><button type="submit">Process batch</button></div>
      </form>
      <form method="post" action="/clear">
        <input type="hidden" name="tab" value="analyze">
        <div class="row"><button type="submit" class="ghost">Clear history</button></div>
      </form>
    </div>
    <div class="card">
      <h2>Result</h2>
      {{ with .Last }}
      <div class="sub">Threshold {{ .Threshold }}</div>
      <div class="label">Comment</div>
      <div class="item">{{ .Text }}</div>
      <div class="label">Detected emotions (over threshold)</div>
      <div>
        {{ range .LabelsOverThreshold }}<span class="pill">{{ .Label }} <b>{{ score .Score }}</b></span>{{ else }}<span class="muted">None above threshold. Check Top K below.</span>{{ end }}
      </div>
      <div class="label">Top K</div>
      <div>{{ range .Top }}<span class="pill">{{ .Label }} <b>{{ score .Score }}</b></span>{{ end }}</div>
      {{ else }}
      <div class="muted">No results yet. Use the Analyze panel to run a comment through the model.</div>
      {{ end }}
    </div>
  </div>
  {{ end }}

  {{ if eq .Tab "dashboard" }}
  {{ $s := .Summary }}
  <div class="grid grid-4">
    <div class="card"><h2>Total processed</h2><div class="kpi" id="total">{{ $s.Total }}</div><div class="muted">Stored in history</div></div>
    <div class="card"><h2>Most common emotions</h2><div class="kpi">{{ firstLabels $s.TopEmotions 2 }}</div><div class="muted">Detected over threshold</div></div>
    <div class="card"><h2>Emotion over threshold</h2><div class="kpi">{{ if $s.Total }}{{ pct $s.StrongShare }}{{ else }}-{{ end }}</div><div class="muted">Comments with at least one label over threshold</div></div>
    <div class="card"><h2>Avg emotions per comment</h2><div class="kpi">{{ if $s.Total }}{{ one $s.AvgDetected }}{{ else }}-{{ end }}</div><div class="muted">Count of labels over threshold</div></div>
  </div>
  <div class="grid grid-2" style="margin-top:20px">
    <div class="card">
      <h2>Emotion distribution</h2><div class="sub">Count of labels appearing in Top K</div>
      {{ if $s.Distribution }}<img class="chart" src="/charts/distribution.png?n={{ $s.Total }}" alt="distribution">{{ else }}<div class="muted">Run a batch to populate charts.</div>{{ end }}
    </div>
    <div class="card">
      <h2>Emotion trend</h2><div class="sub">Rolling window of detected emotions</div>
      {{ if and $s.Trend $s.TrendLabels }}<img class="chart" src="/charts/trend.png?n={{ $s.Total }}" alt="trend">{{ else }}<div class="muted">Run a batch to see trends.</div>{{ end }}
    </div>
  </div>
  <div class="card" style="margin-top:20px">
    <h2>Quick insights</h2>
    {{ if $s.Total }}
    <div>Most frequent (detected over threshold): <b>{{ firstLabels $s.TopEmotions 0 }}</b></div>
    <div>Top-1 score: mean {{ score $s.TopScore.Mean }}, median {{ score $s.TopScore.P50 }}, p90 {{ score $s.TopScore.P90 }}</div>
    <div class="muted">Tip: adjust threshold in Analyze to control precision vs recall for multi-label output.</div>
    {{ else }}<div class="muted">No predictions yet.</div>{{ end }}
  </div>
  <div class="card" style="margin-top:20px">
    <h2>Recent predictions</h2>
    {{ range .Recent }}
    <div class="item"><div>{{ .Text }}</div><div class="muted">{{ when .CreatedAt }}</div>
      {{ range clip .LabelsOverThreshold }}<span class="pill">{{ .Label }} <b>{{ score .Score }}</b></span>{{ else }}<span class="muted">No labels over threshold</span>{{ end }}
    </div>
    {{ else }}<div class="muted">Nothing yet.</div>{{ end }}
  </div>
  {{ end }}

  {{ if eq .Tab "explore" }}
  {{ $e := .Explore }}
  <div class="card">
    <h2>Explore</h2>
    <form method="get" action="/">
      <input type="hidden" name="tab" value="explore">
      <div class="grid grid-4">
        <div><div class="label">Search</div><input type="text" name="q" value="{{ $e.Query }}" placeholder="Search comments"></div>
        <div><div class="label">Emotion</div>
          <select name="label">
            <option value="">All</option>
            {{ range $e.Labels }}<option value="{{ . }}" {{ if eq . $e.Label }}selected{{ end }}>{{ . }}</option>{{ end }}
          </select>
        </div>
        <div><div class="label">Min score</div><input type="number" name="min" step="0.05" min="0" max="1" value="{{ $e.MinScore }}"></div>
        <div><div class="label">Sort</div>
          <select name="sort">
            <option value="newest" {{ if eq $e.Sort "newest" }}selected{{ end }}>Newest</option>
            <option value="highest" {{ if eq $e.Sort "highest" }}selected{{ end }}>Highest emotion</option>
          </select>
        </div>
      </div>
      <div class="row"><button type="submit">Apply</button></div>
    </form>
  </div>
  <div class="card" style="margin-top:20px">
    <h2>Results</h2>
    <div class="sub" id="matched">{{ if $e.Total }}{{ $e.Matched }} / {{ $e.Total }} comments{{ else }}No data yet{{ end }}</div>
    {{ range $e.Results }}
    <div class="item"><div>{{ .Text }}</div>
      {{ range clip .LabelsOverThreshold }}<span class="pill">{{ .Label }} <b>{{ score .Score }}</b></span>{{ else }}<span class="muted">No labels over threshold</span>{{ end }}
    </div>
    {{ else }}<div class="muted">No matches. Try removing filters, or run a batch first.</div>{{ end }}
    {{ if $e.Truncated }}<div class="muted">Showing first {{ $e.Limit }} results.</div>{{ end }}
  </div>
  {{ end }}
</div>
</body>
</html>
`
