package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notifier 通知能力（邮件经套件通知API发送）
// 所有调用都是尽力而为：失败由调用方记日志，绝不中断所属任务
type Notifier interface {
	SendTrialExpiringEmail(ctx context.Context, address, tenantName string, daysRemaining int) error
	SendTrialExpiredEmail(ctx context.Context, address, tenantName string) error
}

// emailRequest 通知请求体
type emailRequest struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Params   map[string]any `json:"params"`
}

// HTTPNotifier 通知服务 HTTP 客户端
type HTTPNotifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPNotifier 创建通知客户端
func NewHTTPNotifier(baseURL, apiKey string, logger *zap.Logger) *HTTPNotifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &HTTPNotifier{
		httpClient: client,
		logger:     logger,
	}
}

var _ Notifier = (*HTTPNotifier)(nil)

// SendTrialExpiringEmail 发送试用即将到期提醒
func (n *HTTPNotifier) SendTrialExpiringEmail(ctx context.Context, address, tenantName string, daysRemaining int) error {
	return n.send(ctx, emailRequest{
		To:       address,
		Template: "trial-expiring",
		Params: map[string]any{
			"tenant_name":    tenantName,
			"days_remaining": daysRemaining,
		},
	})
}

// SendTrialExpiredEmail 发送试用已到期通知
func (n *HTTPNotifier) SendTrialExpiredEmail(ctx context.Context, address, tenantName string) error {
	return n.send(ctx, emailRequest{
		To:       address,
		Template: "trial-expired",
		Params: map[string]any{
			"tenant_name": tenantName,
		},
	})
}

func (n *HTTPNotifier) send(ctx context.Context, req emailRequest) error {
	if req.To == "" {
		// 无收件地址：无事可做
		return nil
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/notifications/email")

	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode())
	}
	return nil
}
