// Package escalation posts degraded-answer alerts to a Slack support
// channel so a human agent can follow up with the customer.
package escalation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/voyora/zara/internal/types"
)

// messagePoster is the subset of the Slack client used by the notifier.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Escalation describes one answer that could not be served via synthesis.
type Escalation struct {
	Question  string
	Method    types.AnswerMethod
	QueryType string
	RequestID string
	Sources   []types.SourceRef
	Timestamp time.Time
}

// Notifier posts escalations to the configured support channel. Posting is
// rate limited so a provider outage cannot flood the channel.
type Notifier struct {
	client  messagePoster
	channel string
	limiter *rate.Limiter
	logger  *log.Logger
}

// New builds a Notifier from the application configuration. It returns nil
// when Slack escalation is not configured; a nil Notifier is safe to use and
// drops every escalation.
func New(cfg *types.Config, logger *log.Logger) *Notifier {
	if cfg.SlackBotToken == "" || cfg.SlackSupportChannel == "" {
		return nil
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[escalation] ", log.LstdFlags)
	}
	perMinute := cfg.EscalationsPerMinute
	if perMinute < 1 {
		perMinute = 10
	}
	return &Notifier{
		client:  slack.New(cfg.SlackBotToken),
		channel: cfg.SlackSupportChannel,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		logger:  logger,
	}
}

// Enabled reports whether escalations will actually be posted.
func (n *Notifier) Enabled() bool {
	return n != nil
}

// Notify posts one escalation. It never blocks the answer path: when the
// limiter has no token the escalation is dropped with a log line.
func (n *Notifier) Notify(ctx context.Context, esc *Escalation) error {
	if n == nil {
		return nil
	}
	if !n.limiter.Allow() {
		n.logger.Printf("escalation dropped by rate limit: request_id=%s", esc.RequestID)
		return nil
	}

	blocks := buildBlocks(esc)
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fmt.Sprintf("Degraded answer (%s): %s", esc.Method, esc.Question), false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to post escalation: %w", err)
	}
	return nil
}

func buildBlocks(esc *Escalation) []slack.Block {
	ts := esc.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, "Helpdesk answer needs follow-up", false, false),
	)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Method:*\n%s", esc.Method), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Query type:*\n%s", esc.QueryType), false, false),
	}
	if esc.RequestID != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Request ID:*\n%s", esc.RequestID), false, false))
	}
	fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*At:*\n%s", ts.UTC().Format(time.RFC3339)), false, false))

	question := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Question:*\n>%s", esc.Question), false, false),
		nil, nil,
	)
	details := slack.NewSectionBlock(nil, fields, nil)

	blocks := []slack.Block{header, question, details}
	if len(esc.Sources) > 0 {
		names := ""
		for i, src := range esc.Sources {
			if i > 0 {
				names += ", "
			}
			names += src.Filename
		}
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, "Matched sources: "+names, false, false),
		))
	}
	return blocks
}
