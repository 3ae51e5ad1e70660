package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ArtifactStore 备份制品存储能力
// 删除失败不阻塞备份记录的状态转换（接受孤儿制品）
type ArtifactStore interface {
	DeleteArtifact(ctx context.Context, storageKey string) error
}

// HTTPArtifactStore 制品存储服务 HTTP 客户端
type HTTPArtifactStore struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPArtifactStore 创建制品存储客户端
func NewHTTPArtifactStore(baseURL, apiKey string, logger *zap.Logger) *HTTPArtifactStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &HTTPArtifactStore{
		httpClient: client,
		logger:     logger,
	}
}

var _ ArtifactStore = (*HTTPArtifactStore)(nil)

// DeleteArtifact 删除远端备份制品
// 404 视为已删除（幂等）
func (s *HTTPArtifactStore) DeleteArtifact(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return nil
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Delete("/v1/artifacts/" + url.PathEscape(storageKey))

	if err != nil {
		return fmt.Errorf("artifact delete request failed: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("artifact store returned status %d", resp.StatusCode())
	}
	return nil
}
