package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// Archiver 冷存储归档能力
// 返回 nil 即视为冷存储已确认写入；调用方只有在确认后才允许删除热存储数据
type Archiver interface {
	ArchiveBatch(ctx context.Context, store string, entries []domain.AuditLogEntry) error
}

// archiveRequest 归档请求体
type archiveRequest struct {
	Store   string                 `json:"store"` // "master" 或租户ID
	Entries []domain.AuditLogEntry `json:"entries"`
}

// archiveResponse 归档响应体
type archiveResponse struct {
	Status string `json:"status"` // "ok"
	Stored int    `json:"stored"` // 冷存储确认写入的条数
}

// HTTPArchiver 冷存储服务 HTTP 客户端
type HTTPArchiver struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPArchiver 创建归档客户端
func NewHTTPArchiver(baseURL, apiKey string, logger *zap.Logger) *HTTPArchiver {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second). // 大批量上传可能较慢
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &HTTPArchiver{
		httpClient: client,
		logger:     logger,
	}
}

var _ Archiver = (*HTTPArchiver)(nil)

// ArchiveBatch 上传一批审计日志到冷存储并等待确认
func (a *HTTPArchiver) ArchiveBatch(ctx context.Context, store string, entries []domain.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var response archiveResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(archiveRequest{Store: store, Entries: entries}).
		SetResult(&response).
		Post("/v1/archive/audit-logs")

	if err != nil {
		return fmt.Errorf("archive request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("archive service returned status %d", resp.StatusCode())
	}
	// 确认条数不符视为未确认，禁止删除热存储
	if response.Status != "ok" || response.Stored != len(entries) {
		return fmt.Errorf("archive not acknowledged: status=%s stored=%d expected=%d",
			response.Status, response.Stored, len(entries))
	}

	a.logger.Debug("Archive batch acknowledged",
		zap.String("store", store),
		zap.Int("entries", len(entries)),
	)
	return nil
}
