package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"enquiry-cli/internal/chunk"
	"enquiry-cli/internal/config"

	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 4096

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	bufSize    int
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL(),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		token:   cfg.Token,
		bufSize: chunk.DefaultBufferSize,
		logger:  logger,
	}
}

// setHeaders applies the common headers. The bearer token is only sent on
// authenticated calls; the streaming chat path is anonymous.
func (c *Client) setHeaders(req *http.Request, hasBody, authenticated bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// --- Chat ---

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	Message      string `json:"message"`
	CustomerName string `json:"customerName,omitempty"`
	Language     string `json:"language"`
}

// FragmentCallback receives each non-empty decoded fragment in arrival order.
type FragmentCallback func(fragment string)

// StreamChat sends one chat request and delivers the streamed reply to cb.
// It returns after the body is exhausted, the context is cancelled, or the
// transport fails. There is no retry.
func (c *Client) StreamChat(ctx context.Context, chatReq ChatRequest, cb FragmentCallback) error {
	start := time.Now()
	c.logger.Debug("chat request",
		zap.String("language", chatReq.Language),
		zap.Int("message_len", len(chatReq.Message)),
		zap.Bool("named", chatReq.CustomerName != ""),
	)

	resp, err := c.postChat(ctx, chatReq, false)
	if err != nil {
		return err
	}
	if resp.Body == nil {
		return &NoBodyError{StatusCode: resp.StatusCode}
	}
	defer resp.Body.Close()

	if resp.Body == http.NoBody ||
		resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		c.logger.Warn("chat response without body", zap.Int("status", resp.StatusCode))
		return &NoBodyError{StatusCode: resp.StatusCode}
	}

	dec := chunk.NewDecoder(resp.Body,
		chunk.WithEncoding(chunk.EncodingFor(resp.Header.Get("Content-Type"))),
		chunk.WithBufferSize(c.bufSize),
	)

	var delivered, size int
	for fragment, err := range dec.All() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Info("chat stream aborted", zap.Int("fragments", delivered))
			return fmt.Errorf("stream aborted: %w", ctxErr)
		}
		if err != nil {
			c.logger.Error("chat stream failed", zap.Int("fragments", delivered), zap.Error(err))
			return &StreamReadError{Delivered: delivered, Err: err}
		}
		if fragment == "" {
			continue
		}
		delivered++
		size += len(fragment)
		cb(fragment)
	}

	c.logger.Info("chat stream finished",
		zap.Int("fragments", delivered),
		zap.Int("bytes", size),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// SendMessage performs the same request but reads the reply in one piece.
func (c *Client) SendMessage(ctx context.Context, chatReq ChatRequest) (string, error) {
	resp, err := c.postChat(ctx, chatReq, true)
	if err != nil {
		return "", err
	}
	if resp.Body == nil {
		return "", &NoBodyError{StatusCode: resp.StatusCode}
	}
	defer resp.Body.Close()

	if resp.Body == http.NoBody || resp.StatusCode == http.StatusNoContent {
		return "", &NoBodyError{StatusCode: resp.StatusCode}
	}
	text := chunk.EncodingFor(resp.Header.Get("Content-Type")).NewDecoder().Reader(resp.Body)
	data, err := io.ReadAll(text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("request aborted: %w", ctxErr)
		}
		return "", &StreamReadError{Err: err}
	}
	return string(data), nil
}

func (c *Client) postChat(ctx context.Context, chatReq ChatRequest, authenticated bool) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, true, authenticated)
	req.Header.Set("Accept", "text/plain, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request aborted: %w", ctxErr)
		}
		c.logger.Error("chat request failed", zap.Error(err))
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		tErr := statusError(resp)
		c.logger.Error("chat request rejected", zap.Int("status", resp.StatusCode), zap.String("message", tErr.Message))
		return nil, tErr
	}
	return resp, nil
}

// errorEnvelope is the server's JSON error shape.
type errorEnvelope struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion"`
	Status     string `json:"status"`
}

func statusError(resp *http.Response) *TransportError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	tErr := &TransportError{StatusCode: resp.StatusCode}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		tErr.Message = env.Error
		tErr.Suggestion = env.Suggestion
		return tErr
	}
	tErr.Message = strings.TrimSpace(string(raw))
	return tErr
}

// --- Health ---

// HealthResponse is returned by the service root.
type HealthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Health calls GET / on the service root (the base URL without its /api suffix).
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, c.rootURL()+"/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) rootURL() string {
	return strings.TrimSuffix(c.baseURL, "/api")
}

// --- Generic JSON helper ---

func (c *Client) doJSON(ctx context.Context, method, fullURL string, reqBody interface{}, result interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil && method != http.MethodGet {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, bodyReader != nil, true)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request aborted: %w", ctxErr)
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
