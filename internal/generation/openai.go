package generation

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"anayasa/internal/prompt"
)

// ChatConfig configures an OpenAI-compatible chat completion endpoint.
type ChatConfig struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	TopP        float32
	Timeout     time.Duration
}

// ChatGenerator calls a chat completion API. Gemini is reached through its
// OpenAI-compatible endpoint.
type ChatGenerator struct {
	api      *goopenai.Client
	cfg      ChatConfig
	observer Observer
}

func NewChatGenerator(cfg ChatConfig, observer Observer) (*ChatGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("generator model is required")
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	oc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	// The per-call deadline comes from the context; this only bounds dialing and reads.
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout + 5*time.Second}
	return &ChatGenerator{api: goopenai.NewClientWithConfig(oc), cfg: cfg, observer: observer}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, msgs []prompt.Message) (Reply, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	req := goopenai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    toChatMessages(msgs),
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
	}
	resp, err := g.api.CreateChatCompletion(ctx, req)
	event := CallEvent{Model: g.cfg.Model, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		event.Err = err.Error()
		g.observer.OnCallComplete(event)
		return Reply{}, err
	}
	reply := Reply{Model: resp.Model}
	if len(resp.Choices) > 0 {
		reply.Blocks = toBlocks(resp.Choices[0].Message)
	}
	event.Success = true
	event.Blocks = len(reply.Blocks)
	g.observer.OnCallComplete(event)
	return reply, nil
}

func toChatMessages(msgs []prompt.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := goopenai.ChatMessageRoleUser
		if m.Role == prompt.RoleSystem {
			role = goopenai.ChatMessageRoleSystem
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func toBlocks(m goopenai.ChatCompletionMessage) []Block {
	if len(m.MultiContent) > 0 {
		var blocks []Block
		for _, part := range m.MultiContent {
			if part.Type == goopenai.ChatMessagePartTypeText {
				blocks = append(blocks, TextBlock{Text: part.Text})
			}
		}
		return blocks
	}
	if m.Content == "" {
		return nil
	}
	return []Block{TextBlock{Text: m.Content}}
}
