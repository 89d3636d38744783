package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/stats"
)

const (
	barWidth    = 28
	textPreview = 72
)

var (
	colorAccent = lipgloss.Color("63")
	colorMuted  = lipgloss.Color("241")
	colorHit    = lipgloss.Color("78")
	colorError  = lipgloss.Color("203")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	hitStyle    = lipgloss.NewStyle().Foreground(colorHit).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Width(16)
	kpiStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// bar draws value/maxValue as a block bar of barWidth cells
func bar(value, maxValue float64) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	n := int(value / maxValue * barWidth)
	n = max(1, min(barWidth, n))
	return barStyle.Render(strings.Repeat("█", n))
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderPrediction prints every Top label with a score bar. Labels over threshold are highlighted.
func renderPrediction(w io.Writer, p *model.Prediction) {
	fmt.Fprintln(w, headerStyle.Render(clip(p.Text, textPreview)))

	detected := make(map[string]struct{}, len(p.LabelsOverThreshold))
	for _, l := range p.LabelsOverThreshold {
		detected[l.Label] = struct{}{}
	}

	for _, l := range p.Top {
		label := labelStyle.Render(l.Label)
		score := fmt.Sprintf("%.3f", l.Score)
		if _, ok := detected[l.Label]; ok {
			score = hitStyle.Render(score)
		}
		fmt.Fprintf(w, "  %s %s %s\n", label, score, bar(l.Score, 1))
	}

	if len(p.LabelsOverThreshold) == 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  no label over threshold %.2f", p.Threshold)))
	}
}

// renderSummary prints KPIs, top emotions and distribution bars
func renderSummary(w io.Writer, s *stats.Summary) {
	if s.Total == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No predictions yet."))
		return
	}

	kpis := lipgloss.JoinHorizontal(lipgloss.Top,
		kpiStyle.Render(fmt.Sprintf("Comments\n%d", s.Total)),
		kpiStyle.Render(fmt.Sprintf("Strong\n%.1f%%", s.StrongShare)),
		kpiStyle.Render(fmt.Sprintf("Avg detected\n%.2f", s.AvgDetected)),
		kpiStyle.Render(fmt.Sprintf("Top score p50/p90\n%.2f / %.2f", s.TopScore.P50, s.TopScore.P90)),
	)
	fmt.Fprintln(w, kpis)

	renderCounts(w, "Top emotions", s.TopEmotions)
	renderCounts(w, "Distribution (top-k)", s.Distribution)
}

func renderCounts(w io.Writer, title string, counts []stats.LabelCount) {
	fmt.Fprintln(w, headerStyle.Render(title))
	if len(counts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
		return
	}

	peak := float64(counts[0].Count)
	for _, lc := range counts {
		fmt.Fprintf(w, "  %s %4d %s\n", labelStyle.Render(lc.Label), lc.Count, bar(float64(lc.Count), peak))
	}
}

// renderHistory prints one row per prediction, newest first
func renderHistory(w io.Writer, items []*model.Prediction) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("History is empty."))
		return
	}

	for _, p := range items {
		labels := make([]string, 0, len(p.LabelsOverThreshold))
		for _, l := range p.LabelsOverThreshold {
			labels = append(labels, fmt.Sprintf("%s %.2f", l.Label, l.Score))
		}
		detected := mutedStyle.Render("-")
		if len(labels) > 0 {
			detected = hitStyle.Render(strings.Join(labels, ", "))
		}

		fmt.Fprintf(w, "%s  %s\n    %s\n",
			mutedStyle.Render(p.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			clip(p.Text, textPreview),
			detected,
		)
	}
}
