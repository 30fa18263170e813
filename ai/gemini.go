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
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

var replyGenerationConfig = &geminiGenerationConfig{
	MaxOutputTokens: 150,
	Temperature:     0.7,
}

var summaryGenerationConfig = &geminiGenerationConfig{
	MaxOutputTokens: 300,
	Temperature:     0.3,
}

// generateGemini calls the Gemini generateContent REST endpoint. The
// history is mapped to Gemini's role vocabulary (npc -> model); Gemini
// requires the first history entry to be user-role, so any leading
// model entry is dropped.
func (c *Client) generateGemini(ctx context.Context, in conversation.GenerationInput, genConfig *geminiGenerationConfig) (string, error) {
	var contents []geminiContent
	for _, turn := range in.History {
		role := "model"
		if turn.Role == conversation.RoleUser {
			role = "user"
		}
		if len(contents) == 0 && role == "model" {
			continue
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: in.UserText}},
	})

	requestBody := geminiRequest{
		Contents:         contents,
		GenerationConfig: genConfig,
	}
	if in.System != "" {
		requestBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: in.System}},
		}
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf(geminiEndpoint, c.config.GeminiModel, c.config.GoogleAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
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
		return "", fmt.Errorf("Gemini API request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response generated")
	}

	c.log.Debug("gemini replied",
		"model", c.config.GeminiModel,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
