package notify

import (
	"github.com/zulandar/shopfloor/internal/config"
	"go.uber.org/zap"
)

// ChatKinds are the events worth a chat message. Per-part events stay on
// the live stream.
var ChatKinds = []Kind{KindProductStatus, KindSheetCut, KindDigest}

// Chat builds the chat sinks configured in cfg. The returned close func
// drains queued messages; the Sink is nil when no webhook is configured.
func Chat(cfg config.NotifyConfig, logger *zap.Logger) (Sink, func(), error) {
	var sinks Multi
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, NewSlack(cfg.SlackWebhookURL, logger))
	}
	if cfg.DiscordWebhookID != "" {
		d, err := NewDiscord(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, logger)
		if err != nil {
			return nil, func() {}, err
		}
		sinks = append(sinks, d)
	}
	if len(sinks) == 0 {
		return nil, func() {}, nil
	}
	async := NewAsync(sinks, 256, logger)
	return Filter(async, ChatKinds...), async.Close, nil
}
