package watch

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/leyiUPM/emotion/pkg/history"
	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// Notice is one rule match for a prediction
type Notice struct {
	Rule         string             `json:"rule"`
	Message      string             `json:"message"`
	Severity     string             `json:"severity"`
	PredictionID model.PredictionID `json:"prediction_id"`
	Text         string             `json:"text"`
}

// Notifier delivers notices outside the process
type Notifier interface {
	Notify(ctx context.Context, n *Notice) error
}

// input is the document rules see as `input`
type input struct {
	ID                  model.PredictionID `json:"id"`
	Text                string             `json:"text"`
	Threshold           float64            `json:"threshold"`
	Top                 []model.LabelScore `json:"top"`
	LabelsOverThreshold []model.LabelScore `json:"labels_over_threshold"`
}

type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Engine evaluates watch rules against predictions
type Engine struct {
	query     *rego.PreparedEvalQuery
	notifiers []Notifier
}

// Option is a functional option for Engine
type Option func(*Engine)

// WithNotifier adds a notifier for every produced notice
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifiers = append(e.notifiers, n)
	}
}

// New loads rules from dir. A directory without rules yields an engine that never
// produces notices.
func New(ctx context.Context, dir string, opts ...Option) (*Engine, error) {
	query, count, err := loadRules(ctx, dir)
	if err != nil {
		return nil, err
	}

	e := &Engine{query: query}
	for _, opt := range opts {
		opt(e)
	}

	logging.From(ctx).Debug("watch rules loaded", "dir", dir, "files", count)
	return e, nil
}

// Enabled reports whether any rule is loaded
func (e *Engine) Enabled() bool {
	return e.query != nil
}

// Evaluate runs the rules for p and returns notices ordered by rule name
func (e *Engine) Evaluate(ctx context.Context, p *model.Prediction) ([]*Notice, error) {
	if e.query == nil {
		return nil, nil
	}

	doc, err := toInput(p)
	if err != nil {
		return nil, err
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(doc), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate watch rules", goerr.V("id", p.ID))
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	raw, ok := rs[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, goerr.New("invalid watch result: notice is not a set", goerr.V("id", p.ID))
	}

	notices := make([]*Notice, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, goerr.New("invalid notice in watch result", goerr.V("id", p.ID))
		}

		n := &Notice{
			Rule:         getString(m, "rule"),
			Message:      getString(m, "message"),
			Severity:     getString(m, "severity"),
			PredictionID: p.ID,
			Text:         p.Text,
		}
		if n.Severity == "" {
			n.Severity = "info"
		}
		notices = append(notices, n)
	}

	sort.SliceStable(notices, func(i, j int) bool {
		return notices[i].Rule < notices[j].Rule
	})
	return notices, nil
}

// Handle evaluates p, logs every notice and hands it to the notifiers. Failures are
// logged only.
func (e *Engine) Handle(ctx context.Context, p *model.Prediction) []*Notice {
	logger := logging.From(ctx)

	notices, err := e.Evaluate(ctx, p)
	if err != nil {
		logger.Error("watch evaluation failed", "error", err)
		return nil
	}

	for _, n := range notices {
		logger.Info("watch notice",
			"rule", n.Rule,
			"severity", n.Severity,
			"message", n.Message,
			"id", n.PredictionID,
		)
		for _, notifier := range e.notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				logger.Warn("failed to deliver notice", "error", err, "rule", n.Rule)
			}
		}
	}
	return notices
}

// Attach evaluates every prediction added to store from now on
func (e *Engine) Attach(ctx context.Context, store *history.Store) (detach func()) {
	return store.Subscribe(func(ev history.Event) {
		if ev.Kind != history.EventAdded {
			return
		}
		for _, p := range ev.Added {
			e.Handle(ctx, p)
		}
	})
}

func toInput(p *model.Prediction) (any, error) {
	raw, err := json.Marshal(&input{
		ID:                  p.ID,
		Text:                p.Text,
		Threshold:           p.Threshold,
		Top:                 p.Top,
		LabelsOverThreshold: p.LabelsOverThreshold,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal watch input")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to build watch input")
	}
	return doc, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
