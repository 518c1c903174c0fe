package di

import (
	"candle_sync/internal/app/config"
	"candle_sync/internal/feature/candles/usecase"
	"candle_sync/internal/platform/messaging"
)

// NewPublisher creates the Kafka candle publisher when brokers are configured.
// It returns a nil publisher and a no-op close func otherwise.
func NewPublisher(cfg config.KafkaConfig) (usecase.CandlePublisher, func() error) {
	brokers := messaging.ParseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, func() error { return nil }
	}
	p := messaging.NewKafkaCandlePublisher(brokers, cfg.Topic)
	return p, p.Close
}
