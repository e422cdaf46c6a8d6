package notify

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// maxRetries is the max number of retries for rate-limited webhook calls.
	maxRetries = 3
	// baseBackoff is the initial backoff after a rate limit.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 30 * time.Second
)

// webhookExecutor abstracts the discordgo session method we use.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts events to a Discord webhook.
type Discord struct {
	session     webhookExecutor
	webhookID   string
	token       string
	logger      *zap.Logger
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewDiscord returns a Discord sink for the given webhook.
func NewDiscord(webhookID, token string, logger *zap.Logger) (*Discord, error) {
	// Webhook execution is authenticated by the webhook token, not a bot token.
	s, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discord{
		session:     s,
		webhookID:   webhookID,
		token:       token,
		logger:      logger,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}, nil
}

// Notify implements Sink.
func (d *Discord) Notify(ctx context.Context, ev Event) {
	params := buildWebhookParams(Format(ev))
	err := d.retryOnRateLimit(ctx, func() error {
		_, err := d.session.WebhookExecute(d.webhookID, d.token, false, params, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		d.logger.Warn("discord: execute webhook failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func buildWebhookParams(m Message) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title:       m.Title,
		Description: m.Body,
		Color:       parseHexColor(m.Color),
	}
	for _, f := range m.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return &discordgo.WebhookParams{
		Content: m.Text(),
		Embeds:  []*discordgo.MessageEmbed{embed},
	}
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}

// retryOnRateLimit calls fn and retries with exponential backoff while
// Discord answers 429.
func (d *Discord) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * d.baseBackoff
		if wait > d.maxBackoff {
			wait = d.maxBackoff
		}
		d.logger.Info("discord: rate limited, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
