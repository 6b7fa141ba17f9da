package refclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gig-wizard/internal/model"

	"golang.org/x/time/rate"
)

// ErrNotFound 远端返回 404。
var ErrNotFound = errors.New("reference item not found")

// Config 定义参考数据服务客户端配置。
type Config struct {
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	Timeout           string  `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// Fetcher 读取某一类别的全部条目，缓存层只依赖这个接口。
type Fetcher interface {
	FetchCategory(ctx context.Context, category model.Category) ([]model.ReferenceItem, error)
}

// SyncResult 表示批量同步结果。
type SyncResult struct {
	Created int `json:"created"`
	Total   int `json:"total"`
}

// HTTPClient 通过 HTTP 访问参考数据服务。
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// New 创建客户端，baseURL 形如 http://localhost:8080。
func New(cfg Config, client *http.Client) *HTTPClient {
	if client == nil {
		timeout := 15 * time.Second
		if cfg.Timeout != "" {
			if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
				timeout = d
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.New(os.Stdout, "[refclient] ", log.LstdFlags),
	}
}

// FetchCategory 读取类别下的全部条目（含未启用条目）。
func (c *HTTPClient) FetchCategory(ctx context.Context, category model.Category) ([]model.ReferenceItem, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("fetch category: unknown category %q", category)
	}
	var items []model.ReferenceItem
	if err := c.do(ctx, http.MethodGet, "/api/reference/"+category.Path(), nil, &items); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", category, err)
	}
	for i := range items {
		if items[i].Category == "" {
			items[i].Category = category
		}
		items[i].Description = plainText(items[i].Description)
	}
	c.logf("category=%s fetched=%d", category, len(items))
	return items, nil
}

// SaveSkill 创建技能。
func (c *HTTPClient) SaveSkill(ctx context.Context, in model.SkillInput) (model.ReferenceItem, error) {
	var item model.ReferenceItem
	if err := c.do(ctx, http.MethodPost, "/api/skills", in, &item); err != nil {
		return model.ReferenceItem{}, fmt.Errorf("save skill: %w", err)
	}
	item.Description = plainText(item.Description)
	return item, nil
}

// UpdateSkill 更新技能。
func (c *HTTPClient) UpdateSkill(ctx context.Context, id string, in model.SkillInput) (model.ReferenceItem, error) {
	var item model.ReferenceItem
	if err := c.do(ctx, http.MethodPut, "/api/skills/"+url.PathEscape(id), in, &item); err != nil {
		return model.ReferenceItem{}, fmt.Errorf("update skill: %w", err)
	}
	item.Description = plainText(item.Description)
	return item, nil
}

// DeleteSkill 删除技能。
func (c *HTTPClient) DeleteSkill(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/skills/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	return nil
}

// SearchSkillsByName 按名称模糊搜索，category 为空时搜索全部技能类别。
func (c *HTTPClient) SearchSkillsByName(ctx context.Context, category model.Category, name string) ([]model.ReferenceItem, error) {
	q := url.Values{}
	q.Set("name", name)
	if category != "" {
		q.Set("category", string(category))
	}
	var items []model.ReferenceItem
	if err := c.do(ctx, http.MethodGet, "/api/skills/search?"+q.Encode(), nil, &items); err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}
	for i := range items {
		items[i].Description = plainText(items[i].Description)
	}
	return items, nil
}

// GetSkillByID 按标识读取技能。
func (c *HTTPClient) GetSkillByID(ctx context.Context, id string) (model.ReferenceItem, error) {
	var item model.ReferenceItem
	if err := c.do(ctx, http.MethodGet, "/api/skills/"+url.PathEscape(id), nil, &item); err != nil {
		return model.ReferenceItem{}, fmt.Errorf("get skill: %w", err)
	}
	item.Description = plainText(item.Description)
	return item, nil
}

// SyncSkills 批量写入技能，已存在的条目会被更新。
func (c *HTTPClient) SyncSkills(ctx context.Context, items []model.ReferenceItem) (SyncResult, error) {
	var res SyncResult
	if err := c.do(ctx, http.MethodPost, "/api/skills/sync", items, &res); err != nil {
		return SyncResult{}, fmt.Errorf("sync skills: %w", err)
	}
	return res, nil
}

// envelope 对应服务端 {data, error} 响应。
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Error != "" {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, env.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode envelope: %w", decodeErr)
	}
	if env.Error != "" {
		return fmt.Errorf("service error: %s", env.Error)
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *HTTPClient) logf(format string, args ...any) {
	if c.logger == nil {
		c.logger = log.New(os.Stdout, "[refclient] ", log.LstdFlags)
	}
	c.logger.Printf(format, args...)
}
