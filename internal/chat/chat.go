package chat

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"

	"voxtalk/internal/conversation"
)

// ErrNoReply covers every way a completion can fail to produce text:
// non-200 status, transport error, empty choices.
var ErrNoReply = errors.New("no reply from completion endpoint")

type Client struct {
	api   openai.Client
	model string
}

// NewClient expects api to be built with retries disabled; a failed
// completion is reported once and never retried.
func NewClient(api openai.Client, model string) *Client {
	return &Client{api: api, model: model}
}

func (c *Client) Complete(ctx context.Context, history []conversation.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case conversation.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case conversation.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case conversation.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			return "", fmt.Errorf("unknown role %q", m.Role)
		}
	}

	log.Debug("Requesting completion", "model", c.model, "messages", len(msgs))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d", ErrNoReply, apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: %w", ErrNoReply, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrNoReply)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrNoReply)
	}

	return content, nil
}
