package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"npc-chatlab/backend/internal/conversation"
	"npc-chatlab/backend/pkg/logger"
)

// Model names accepted by the client.
const (
	ModelGemini = "gemini"
	ModelLocal  = "local"
)

// Config holds the backend endpoints and credentials for the client.
type Config struct {
	// GoogleAPIKey authenticates Gemini calls.
	GoogleAPIKey string
	// GeminiModel is the concrete Gemini model id to invoke.
	GeminiModel string
	// LocalModelURL points at an OpenAI-compatible endpoint; empty
	// disables the "local" model.
	LocalModelURL string
	// SummaryModel is the model used for history summarization.
	// Defaults to Gemini when unset.
	SummaryModel string
}

// Client calls the configured generation backends. It implements both
// conversation.Generator and conversation.Summarizer.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient validates the configuration and builds a client. At least
// one backend must be usable.
func NewClient(config Config, log *logger.Logger) (*Client, error) {
	if config.GoogleAPIKey == "" && config.LocalModelURL == "" {
		return nil, errors.New("no generation backend configured: set GOOGLE_API_KEY or LOCAL_MODEL_URL")
	}
	if config.GeminiModel == "" {
		config.GeminiModel = "gemini-2.0-flash-exp"
	}
	if config.SummaryModel == "" {
		if config.GoogleAPIKey != "" {
			config.SummaryModel = ModelGemini
		} else {
			config.SummaryModel = ModelLocal
		}
	}
	return &Client{
		config: config,
		// No client-level timeout; callers bound every call with a
		// context deadline.
		httpClient: &http.Client{},
		log:        log,
	}, nil
}

// Models lists the model names this client can serve.
func (c *Client) Models() []string {
	var models []string
	if c.config.GoogleAPIKey != "" {
		models = append(models, ModelGemini)
	}
	if c.config.LocalModelURL != "" {
		models = append(models, ModelLocal)
	}
	return models
}

// Supports reports whether the named model is configured.
func (c *Client) Supports(model string) bool {
	for _, m := range c.Models() {
		if m == model {
			return true
		}
	}
	return false
}

// Generate produces one reply from the named model.
func (c *Client) Generate(ctx context.Context, model string, in conversation.GenerationInput) (string, error) {
	switch model {
	case ModelGemini:
		if c.config.GoogleAPIKey == "" {
			return "", fmt.Errorf("model %s is not configured", model)
		}
		return c.generateGemini(ctx, in, replyGenerationConfig)
	case ModelLocal:
		if c.config.LocalModelURL == "" {
			return "", fmt.Errorf("model %s is not configured", model)
		}
		return c.generateLocal(ctx, in)
	default:
		return "", fmt.Errorf("unknown model %q", model)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generateLocal calls an OpenAI-compatible chat completion endpoint.
func (c *Client) generateLocal(ctx context.Context, in conversation.GenerationInput) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: in.System},
	}
	for _, turn := range in.History {
		role := "assistant"
		if turn.Role == conversation.RoleUser {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: in.UserText})

	requestBody := openAIRequest{
		Model:    "default",
		Messages: messages,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.LocalModelURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local API request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("local API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", errors.New("no response generated")
	}

	c.log.Debug("local model replied", "latency_ms", time.Since(start).Milliseconds())
	return openAIResp.Choices[0].Message.Content, nil
}
