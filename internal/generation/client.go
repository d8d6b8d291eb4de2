package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var ErrNotConfigured = errors.New("missing OPENAI_API_KEY on server")

// UpstreamError is a non-2xx answer from the completion API. Body is the raw response text.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, Truncate(e.Body, 400))
}

// Result carries the extracted output and the raw body it came from.
type Result struct {
	Output string
	Raw    string
}

type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// Client calls an OpenAI-compatible /chat/completions endpoint through the official SDK.
type Client struct {
	sdk         openai.Client
	configured  bool
	model       string
	temperature float64
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	sdk := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithHTTPClient(cfg.HTTPClient),
		// the circuit breaker owns failure handling
		option.WithMaxRetries(0),
	)

	return &Client{
		sdk:         sdk,
		configured:  cfg.APIKey != "",
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (c *Client) Generate(ctx context.Context, r Request) (Result, error) {
	if !c.configured {
		return Result{}, ErrNotConfigured
	}

	var resp *http.Response
	completion, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toSDKMessages(BuildMessages(r)),
		Temperature: openai.Float(c.temperature),
	}, option.WithResponseInto(&resp))

	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return Result{}, &UpstreamError{Status: resp.StatusCode, Body: readBody(resp)}
	}

	if err != nil {
		if resp != nil {
			// 2xx whose body is not a completion; keep whatever text is still readable
			return Result{Raw: readBody(resp)}, nil
		}
		return Result{}, fmt.Errorf("chat request: %w", err)
	}

	raw := completion.RawJSON()
	return Result{Output: ParseOutput([]byte(raw)), Raw: raw}, nil
}

func toSDKMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// readBody drains what the SDK left in the response body; a consumed body yields "".
func readBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	return string(body)
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		Text *string `json:"text"`
	} `json:"choices"`
}

// ParseOutput extracts choices[0].message.content, falling back to choices[0].text.
// Unparseable bodies yield "".
func ParseOutput(body []byte) string {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Choices) == 0 {
		return ""
	}

	choice := resp.Choices[0]
	if choice.Message != nil && choice.Message.Content != nil {
		return *choice.Message.Content
	}
	if choice.Text != nil {
		return *choice.Text
	}
	return ""
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
