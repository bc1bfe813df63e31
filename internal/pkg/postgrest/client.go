package postgrest

import (
	"Parley/internal/api/config"
	"Parley/internal/model"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

var ErrNotConfigured = errors.New("postgrest: url is not configured")

// APIError PostgREST 返回的错误体
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: %d: %s", e.Status, e.Message)
}

// Client 托管关系库的 REST 访问入口 (Supabase 风格)
type Client struct {
	http *resty.Client
}

func NewClient(cfg config.PostgRESTConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	if cfg.ApiKey != "" {
		c.SetHeader("apikey", cfg.ApiKey).SetAuthToken(cfg.ApiKey)
	}
	return &Client{http: c}, nil
}

// Select GET /table?query，返回行记录
func (c *Client) Select(ctx context.Context, table string, query url.Values) ([]model.Record, error) {
	var rows []model.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(&rows).
		Get("/" + table)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert POST /table 并要求返回写入后的行
func (c *Client) Insert(ctx context.Context, table string, body any) ([]model.Record, error) {
	var rows []model.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(&rows).
		Post("/" + table)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update PATCH /table?query
func (c *Client) Update(ctx context.Context, table string, query url.Values, body any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetQueryParamsFromValues(query).
		SetBody(body).
		Patch("/" + table)
	return check(resp, err)
}

// Delete DELETE /table?query
func (c *Client) Delete(ctx context.Context, table string, query url.Values) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Delete("/" + table)
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("postgrest: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if jsonErr := json.Unmarshal(resp.Body(), apiErr); jsonErr != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	return apiErr
}

// eq / in 构造 PostgREST 过滤表达式
func eq(v string) string {
	return "eq." + v
}

func in(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(v))
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// quote 含保留字符的值需要双引号包裹
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
