// =============================================================================
// Revenue/Refund Analyzer - Remote Analysis
// =============================================================================
//
// Sends a sanitized summary to a chat-completion endpoint and returns the
// generated report text. This is opt-in: nothing is sent without a
// credential.
//
// ENDPOINTS:
//   Configured endpoints are tried in order. The first one that answers with
//   a usable completion wins; the errors of the others are kept and returned
//   together if every endpoint fails.
//
// CREDENTIAL:
//   Taken from the --api-key flag, else from ANALYZER_API_KEY. The variable
//   may live in a .env file, which is loaded with godotenv without
//   overriding variables already set in the environment.
//
// =============================================================================

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/logging"
)

// EnvAPIKey is the environment variable holding the credential.
const EnvAPIKey = "ANALYZER_API_KEY"

var (
	// ErrNoCredential is returned when no API key could be found.
	ErrNoCredential = errors.New("no API key: pass --api-key or set " + EnvAPIKey)

	// ErrNoEndpoint is returned when the client has nothing to call.
	ErrNoEndpoint = errors.New("no remote endpoint configured")
)

const (
	systemPrompt = "你是一位专业的教育培训机构数据分析师，擅长从财务和营销角度分析业务数据，提供可执行的改进建议。"
	userPrompt   = "请基于以下数据生成详细的分析报告，包括：1. 总体情况分析 2. 财务健康度评估 3. 营销效果分析 4. 风险提示 5. 改进建议。数据："
)

// ResolveAPIKey returns flagValue if set, otherwise ANALYZER_API_KEY after
// loading envFile (a missing env file is not an error).
func ResolveAPIKey(flagValue, envFile string) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}
	return "", ErrNoCredential
}

// Options configures a Client.
type Options struct {
	Endpoints   []string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      logging.Logger
}

// Client calls chat-completion endpoints.
type Client struct {
	opts Options
	http *http.Client
	log  logging.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoCredential
	}
	if len(opts.Endpoints) == 0 {
		return nil, ErrNoEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Client{opts: opts, http: hc, log: opts.Logger}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Analyze posts p and returns the completion text.
func (c *Client) Analyze(ctx context.Context, p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	body, err := json.Marshal(completionRequest{
		Model: c.opts.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt + string(data)},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	var errs []error
	for _, endpoint := range c.opts.Endpoints {
		text, err := c.post(ctx, endpoint, body)
		if err == nil {
			return text, nil
		}
		c.log.Warn("remote endpoint %s failed: %v", endpoint, err)
		errs = append(errs, fmt.Errorf("%s: %w", endpoint, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("remote analysis failed: %w", errors.Join(errs...))
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %s", resp.Status)
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
