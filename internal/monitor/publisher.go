package monitor

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"orbis-maintenance/internal/config"
	"orbis-maintenance/internal/domain"
)

// HealthPublisher 健康状态推送能力（尽力而为）
type HealthPublisher interface {
	PublishHealth(report domain.HealthReport) error
	Close()
}

// MQTTPublisher 基于 MQTT 的健康状态推送
// 主题: <prefix><tenant_id>，retained 消息保留最近一次状态
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewMQTTPublisher 创建MQTT推送客户端
func NewMQTTPublisher(cfg *config.MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTPublisher{
		client:      client,
		topicPrefix: cfg.Topic,
		qos:         cfg.QoS,
		logger:      logger,
	}, nil
}

var _ HealthPublisher = (*MQTTPublisher)(nil)

// PublishHealth 推送单个租户的健康报告
func (p *MQTTPublisher) PublishHealth(report domain.HealthReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal health report: %w", err)
	}

	topic := p.topicPrefix + report.TenantID
	token := p.client.Publish(topic, p.qos, true, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Close 断开MQTT连接
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NoopPublisher MQTT未启用时的空实现
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

var _ HealthPublisher = (*NoopPublisher)(nil)

func (p *NoopPublisher) PublishHealth(report domain.HealthReport) error { return nil }

func (p *NoopPublisher) Close() {}
