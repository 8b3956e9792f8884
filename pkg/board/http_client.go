package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"taskflow/domain/workflow"
)

// APIError is a non-2xx answer from the task API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("task api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("task api returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsIllegalTransition is true when the server evaluated the move against a
// newer status than the board had.
func (e *APIError) IsIllegalTransition() bool {
	return e.Code == "ILLEGAL_TRANSITION"
}

type HTTPClientConfig struct {
	BaseURL string // e.g. http://localhost:8080
	Token   string
	Timeout time.Duration
	// Limiter ถ้าไม่ใส่จะไม่จำกัด request rate
	Limiter *rate.Limiter
}

// HTTPClient talks to /api/v1/tasks. It implements StatusClient.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ StatusClient = (*HTTPClient)(nil)

func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		limiter:    cfg.Limiter,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) ChangeStatus(ctx context.Context, taskID uuid.UUID, to workflow.Status) (*Card, error) {
	body, err := json.Marshal(map[string]string{"status": string(to)})
	if err != nil {
		return nil, err
	}

	var card Card
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tasks/"+taskID.String()+"/status", nil, body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListTasks fetches one page of tasks visible to the token's user, ready for
// Controller.Load.
func (c *HTTPClient) ListTasks(ctx context.Context, page, limit int) ([]Card, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var out struct {
		Tasks []Card `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
