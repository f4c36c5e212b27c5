package spam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/feedbackhq/feedbackd/pkg/config"
)

// Classifier decides whether a feedback message is spam. Implementations
// must honor ctx cancellation and keep their own bounded timeout.
type Classifier interface {
	Classify(ctx context.Context, message string) (bool, error)
}

// Failure reasons used to label classifier errors in telemetry.
const (
	ReasonTimeout   = "timeout"
	ReasonTransport = "transport"
	ReasonMalformed = "malformed"
	ReasonRejected  = "rejected"
)

var (
	errMalformedResponse = errors.New("classifier returned a malformed response")
	errUnusableVerdict   = errors.New("classifier verdict was not yes/no")
)

// HTTPClassifier calls a chat-completion style endpoint to label a message.
type HTTPClassifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPClassifier builds a classifier from config. Returns nil when no
// base URL is configured so the caller can skip classification entirely.
func NewHTTPClassifier(cfg config.ClassifierConfig) *HTTPClassifier {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	return &HTTPClassifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

const spamPrompt = "Classify the following user feedback message as spam or not spam. " +
	"Spam includes gibberish, advertising, and abuse with no actionable content. " +
	"Answer with exactly one word: yes or no.\n\nMessage:\n"

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, message string) (bool, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "user", Content: spamPrompt + message},
		},
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("classifier responded %d: %w", resp.StatusCode, errRejectedStatus)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return false, errMalformedResponse
	}

	answer := strings.ToLower(strings.TrimSpace(parsed.Choices[0].Message.Content))
	switch {
	case strings.HasPrefix(answer, "yes"):
		return true, nil
	case strings.HasPrefix(answer, "no"):
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", errUnusableVerdict, answer)
}

var errRejectedStatus = errors.New("classifier rejected the request")

// failureReason maps a classifier error to its telemetry label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, errRejectedStatus):
		return ReasonRejected
	case errors.Is(err, errMalformedResponse), errors.Is(err, errUnusableVerdict):
		return ReasonMalformed
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonTransport
	}
	return ReasonTransport
}
