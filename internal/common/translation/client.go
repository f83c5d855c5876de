// internal/common/translation/client.go
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "survey-recommender/internal/common/http"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	ErrLanguageDetectionFailed = errors.New("LANGUAGE_DETECTION_FAILED")
	ErrTranslationFailed       = errors.New("TRANSLATION_FAILED")
)

// Translator is the language-detection and translation collaborator.
type Translator interface {
	Detect(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to a LibreTranslate-compatible API behind a circuit breaker.
type Client struct {
	http    *commonhttp.Client
	baseURL string
	apiKey  string
	cb      *gobreaker.CircuitBreaker[interface{}]
	logger  logger.Logger
}

const breakerName = "translation-api"

func NewClient(cfg Config, log logger.Logger) *Client {
	log = logger.Component(log, "translation-client")
	metrics.TranslatorBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("translation circuit breaker state change", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
			metrics.TranslatorBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		http:    commonhttp.NewClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		cb:      cb,
		logger:  log,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText []string `json:"translatedText"`
}

// Detect returns the most confident language code for text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		var out []detection
		if err := c.http.PostJSON(ctx, c.baseURL+"/detect", detectRequest{Q: text, APIKey: c.apiKey}, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLanguageDetectionFailed, err)
	}

	detections := result.([]detection)
	if len(detections) == 0 {
		return "", fmt.Errorf("%w: no language detected", ErrLanguageDetectionFailed)
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return strings.ToLower(best.Language), nil
}

// Translate translates texts from source to target, preserving order.
func (c *Client) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := translateRequest{Q: texts, Source: source, Target: target, Format: "text", APIKey: c.apiKey}
	result, err := c.cb.Execute(func() (interface{}, error) {
		var out translateResponse
		if err := c.http.PostJSON(ctx, c.baseURL+"/translate", req, &out); err != nil {
			return nil, err
		}
		return out.TranslatedText, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}

	translated := result.([]string)
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d translations, got %d", ErrTranslationFailed, len(texts), len(translated))
	}
	return translated, nil
}
