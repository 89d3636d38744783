package insight

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/insight.md
var insightPromptRaw string

var insightPromptTmpl = template.Must(template.New("insight").Parse(insightPromptRaw))

var ErrEmptyHistory = goerr.New("history is empty")

const defaultRecent = 10

// UseCase writes a narrative of the emotional trend in a history snapshot
type UseCase struct {
	gemini   adapter.Gemini
	language string
	recent   int
	opts     stats.SummaryOptions
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithLanguage sets the language of the report
func WithLanguage(lang string) Option {
	return func(uc *UseCase) {
		uc.language = lang
	}
}

// WithRecent sets how many recent comments are quoted in the prompt
func WithRecent(n int) Option {
	return func(uc *UseCase) {
		uc.recent = n
	}
}

// WithSummaryOptions sets the aggregation sizes
func WithSummaryOptions(opts stats.SummaryOptions) Option {
	return func(uc *UseCase) {
		uc.opts = opts
	}
}

func New(gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini:   gemini,
		language: "English",
		recent:   defaultRecent,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// BuildPrompt renders the prompt for items, newest first
func (u *UseCase) BuildPrompt(items []*model.Prediction) (string, error) {
	summary := stats.Summarize(items, u.opts)

	recent := items
	if u.recent > 0 && len(recent) > u.recent {
		recent = recent[:u.recent]
	}

	window := u.opts.TrendWindow
	if window <= 0 {
		window = stats.DefaultTrendWindow
	}

	var buf bytes.Buffer
	if err := insightPromptTmpl.Execute(&buf, map[string]any{
		"Summary":  summary,
		"Recent":   recent,
		"Window":   window,
		"Language": u.language,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute insight prompt template")
	}
	return buf.String(), nil
}

// Generate asks the model for a report over items
func (u *UseCase) Generate(ctx context.Context, items []*model.Prediction) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyHistory
	}

	prompt, err := u.BuildPrompt(items)
	if err != nil {
		return "", err
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	resp, err := u.gemini.GenerateContent(ctx, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate insight", goerr.V("items", len(items)))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("invalid response structure from gemini")
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			parts = append(parts, part.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", goerr.New("gemini returned no text")
	}
	return text, nil
}
