package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Slack posts messages to an incoming webhook
type Slack interface {
	Post(ctx context.Context, title, body string) error
}

type slackWebhook struct {
	url string
}

func NewSlackWebhook(url string) Slack {
	return &slackWebhook{url: url}
}

func (s *slackWebhook) Post(ctx context.Context, title, body string) error {
	msg := &slack.WebhookMessage{
		Text: title,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
				slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, s.url, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook")
	}
	return nil
}
