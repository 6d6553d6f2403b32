package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// FallbackNotice is prepended to the reply when the multimodal request was
// rejected and the text-only retry succeeded.
const FallbackNotice = "**Note: I couldn't process the image, but I can still help with your text query.**\n\n"

// fallbackPlaceholder stands in for the user text on the text-only retry when
// the original turn was image-only.
const fallbackPlaceholder = "I've uploaded an image of olive trees/fruits. Please analyze it for any visible issues or diseases."

// Completer is the remote model call. The production implementation is
// OpenAICompatibleClient; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, cfg ChatConfig, messages []ChatMessage) (string, error)
}

// Reply is a successful completion. UsedFallback marks replies produced by
// the text-only retry after the model rejected image content.
type Reply struct {
	Text         string
	UsedFallback bool
}

// Gateway invokes the remote model and owns the single degrade path: when a
// multimodal request is rejected for its image content, the final user block
// is rewritten to plain text and the call retried exactly once.
type Gateway struct {
	client Completer
	cfg    ChatConfig
	logger *zap.Logger
}

func NewGateway(client Completer, cfg ChatConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{client: client, cfg: cfg, logger: logger}
}

// Ready reports whether the gateway has a usable remote configuration.
func (g *Gateway) Ready() bool {
	return g.client != nil && g.cfg.APIKey != "" && g.cfg.BaseURL != "" && g.cfg.Model != ""
}

func (g *Gateway) Complete(ctx context.Context, messages []ChatMessage) (Reply, error) {
	text, err := g.client.Complete(ctx, g.cfg, messages)
	if err == nil {
		return Reply{Text: text}, nil
	}

	if len(messages) == 0 || !isImageRejection(err) {
		return Reply{}, err
	}
	last := messages[len(messages)-1]
	parts := last.Parts()
	if parts == nil {
		return Reply{}, err
	}

	g.logger.Warn("multimodal request rejected, retrying text-only", zap.Error(err))

	plain := textOfParts(parts)
	if plain == "" {
		plain = fallbackPlaceholder
	}
	retry := make([]ChatMessage, len(messages))
	copy(retry, messages)
	retry[len(retry)-1] = TextMessage("user", plain)

	text, retryErr := g.client.Complete(ctx, g.cfg, retry)
	if retryErr != nil {
		return Reply{}, retryErr
	}
	return Reply{Text: FallbackNotice + text, UsedFallback: true}, nil
}

// isImageRejection matches the error classes the remote API raises for
// unsupported image/multimodal content. Deliberately broad: the bare
// substring "image" is part of the contract with upstream error text.
func isImageRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "multimodal") ||
		strings.Contains(msg, "content array") ||
		strings.Contains(msg, "image")
}

func textOfParts(parts []ContentPart) string {
	for _, part := range parts {
		if part.Type == "text" && strings.TrimSpace(part.Text) != "" {
			return part.Text
		}
	}
	return ""
}
