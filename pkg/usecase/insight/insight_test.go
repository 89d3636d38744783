package insight_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/usecase/insight"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type mockGemini struct {
	prompts []string
	reply   string
	err     error
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for _, c := range contents {
		for _, p := range c.Parts {
			m.prompts = append(m.prompts, p.Text)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(m.reply, genai.RoleModel)},
		},
	}, nil
}

func sampleItems() []*model.Prediction {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return []*model.Prediction{
		{
			ID: model.NewPredictionID(), Text: "This update broke my workflow", CreatedAt: base.Add(time.Minute), Threshold: 0.5,
			Top:                 []model.LabelScore{{Label: "annoyance", Score: 0.8}},
			LabelsOverThreshold: []model.LabelScore{{Label: "annoyance", Score: 0.8}},
		},
		{
			ID: model.NewPredictionID(), Text: "Thank you, support was great", CreatedAt: base, Threshold: 0.5,
			Top:                 []model.LabelScore{{Label: "gratitude", Score: 0.95}},
			LabelsOverThreshold: []model.LabelScore{{Label: "gratitude", Score: 0.95}},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	uc := insight.New(&mockGemini{}, insight.WithLanguage("Japanese"))

	prompt, err := uc.BuildPrompt(sampleItems())
	gt.NoError(t, err)
	gt.S(t, prompt).Contains("Analyzed comments: 2")
	gt.S(t, prompt).Contains("- gratitude: 1")
	gt.S(t, prompt).Contains(`"This update broke my workflow" -> annoyance (0.80)`)
	gt.S(t, prompt).Contains("report in Japanese")
}

func TestGenerate(t *testing.T) {
	gemini := &mockGemini{reply: "  Mostly gratitude, with one annoyed comment.\n"}
	uc := insight.New(gemini, insight.WithRecent(1))

	text, err := uc.Generate(context.Background(), sampleItems())
	gt.NoError(t, err)
	gt.Equal(t, text, "Mostly gratitude, with one annoyed comment.")
	gt.A(t, gemini.prompts).Length(1)
	gt.S(t, gemini.prompts[0]).NotContains("Thank you, support was great\" ->")
}

func TestGenerateEmptyHistory(t *testing.T) {
	gemini := &mockGemini{}
	_, err := insight.New(gemini).Generate(context.Background(), nil)
	gt.True(t, errors.Is(err, insight.ErrEmptyHistory))
	gt.A(t, gemini.prompts).Length(0)
}

func TestGenerateError(t *testing.T) {
	_, err := insight.New(&mockGemini{err: errors.New("quota")}).Generate(context.Background(), sampleItems())
	gt.Error(t, err)
}
