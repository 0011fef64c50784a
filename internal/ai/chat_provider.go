package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default models per provider. Each endpoint speaks the OpenAI
// chat-completions wire format.
const (
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o"

	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.3-70b-versatile"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	geminiModel   = "gemini-2.5-flash"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	requestTimeout     = 60 * time.Second
)

// chatProvider is a chat-completions client for one OpenAI-compatible
// endpoint.
type chatProvider struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func newOpenAIProvider(apiKey string) *chatProvider {
	return newChatProvider("openai", openAIBaseURL, openAIModel, apiKey)
}

func newGroqProvider(apiKey string) *chatProvider {
	return newChatProvider("groq", groqBaseURL, groqModel, apiKey)
}

func newGeminiProvider(apiKey string) *chatProvider {
	return newChatProvider("gemini", geminiBaseURL, geminiModel, apiKey)
}

func newChatProvider(name, baseURL, model, apiKey string) *chatProvider {
	return &chatProvider{
		name:    name,
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Configured() bool { return p.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends one chat-completions request and returns the first
// choice's content.
func (p *chatProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
