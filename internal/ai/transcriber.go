package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/rs/zerolog"
)

// Whisper endpoints, tried in order. Groq is preferred for latency.
const (
	groqWhisperModel   = "whisper-large-v3"
	openAIWhisperModel = "whisper-1"

	transcribeTimeout = 120 * time.Second
)

// Transcriber converts uploaded audio into text with ordered provider
// fallback (Groq whisper, then OpenAI whisper).
type Transcriber struct {
	backends []transcribeBackend
	client   *http.Client
	log      zerolog.Logger
}

type transcribeBackend struct {
	name    string
	baseURL string
	model   string
	apiKey  string
}

// NewTranscriber builds the default transcription chain from configuration.
func NewTranscriber(cfg *config.Config, log zerolog.Logger) *Transcriber {
	return &Transcriber{
		backends: []transcribeBackend{
			{name: "groq", baseURL: groqBaseURL, model: groqWhisperModel, apiKey: cfg.GroqAPIKey},
			{name: "openai", baseURL: openAIBaseURL, model: openAIWhisperModel, apiKey: cfg.OpenAIAPIKey},
		},
		client: &http.Client{Timeout: transcribeTimeout},
		log:    log.With().Str("component", "transcriber").Logger(),
	}
}

// Transcribe uploads the audio and returns plain transcript text. The
// whole file is buffered once so both backends can receive it.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	var errs []error
	configured := 0

	for _, b := range t.backends {
		if b.apiKey == "" {
			continue
		}
		configured++

		text, err := t.transcribeWith(ctx, b, filename, data)
		if err != nil {
			t.log.Warn().Err(err).Str("provider", b.name).Msg("Transcription failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}
		return text, nil
	}

	if configured == 0 {
		return "", ErrNoProviderConfigured
	}
	return "", fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func (t *Transcriber) transcribeWith(ctx context.Context, b transcribeBackend, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	_ = mw.WriteField("model", b.model)
	_ = mw.WriteField("response_format", "text")
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	// response_format=text returns the transcript directly.
	return strings.TrimSpace(string(raw)), nil
}
