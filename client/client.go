// Package client 是订阅服务的 Go 客户端 SDK，内置单飞协调器，
// 保证同一账号的权益数据拉取不会并发重复发起。
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
)

// APIError 服务端返回 success=false 时的错误，以响应里的 code 和
// message 为准，不看 HTTP 状态码。
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// envelope 服务端统一响应结构
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New 创建客户端，token 为登录后获取的 JWT
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// FetchSubscription 拉取当前订阅，没有订阅时返回 nil
func (c *Client) FetchSubscription(ctx context.Context) (*model.UserSubscription, error) {
	var sub *model.UserSubscription
	if err := c.get(ctx, "/api/v1/subscription", &sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// FetchPlans 拉取当前账号可见的套餐列表
func (c *Client) FetchPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	if err := c.get(ctx, "/api/v1/plans", &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// FetchUsage 拉取用量统计，没有订阅时返回 nil
func (c *Client) FetchUsage(ctx context.Context) (*dto.UsageStats, error) {
	var stats *dto.UsageStats
	if err := c.get(ctx, "/api/v1/subscription/usage", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		return &APIError{Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return nil
}
