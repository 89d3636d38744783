package watch

import (
	"context"
	"fmt"
	"strings"

	"github.com/leyiUPM/emotion/pkg/adapter"
)

// SlackNotifier posts notices through a Slack webhook
type SlackNotifier struct {
	slack adapter.Slack
}

func NewSlackNotifier(slack adapter.Slack) *SlackNotifier {
	return &SlackNotifier{slack: slack}
}

func (s *SlackNotifier) Notify(ctx context.Context, n *Notice) error {
	title := fmt.Sprintf("[%s] %s", strings.ToUpper(n.Severity), n.Rule)

	var b strings.Builder
	if n.Message != "" {
		b.WriteString("*" + n.Message + "*\n")
	}
	b.WriteString("> " + n.Text + "\n")
	b.WriteString("`" + string(n.PredictionID) + "`")

	return s.slack.Post(ctx, title, b.String())
}
