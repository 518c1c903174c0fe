// Package messaging publishes newly stored candles to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/usecase"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the topic candle events are written to.
const DefaultTopic = "candles"

// CandleEvent is the JSON payload of one candle message.
type CandleEvent struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaCandlePublisher writes one message per stored candle, keyed by series.
type KafkaCandlePublisher struct {
	writer messageWriter
	topic  string
}

var _ usecase.CandlePublisher = (*KafkaCandlePublisher)(nil)

// NewKafkaCandlePublisher returns a publisher writing to topic on brokers.
// The hash balancer keeps every candle of a series on one partition, in order.
func NewKafkaCandlePublisher(brokers []string, topic string) *KafkaCandlePublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaCandlePublisher{writer: w, topic: topic}
}

// Publish writes candle as a JSON CandleEvent.
func (p *KafkaCandlePublisher) Publish(ctx context.Context, candle entity.Candle) error {
	value, err := json.Marshal(CandleEvent{
		Symbol:    candle.Symbol,
		Timeframe: candle.Timeframe,
		OpenTime:  candle.OpenTime,
		Open:      candle.Open,
		High:      candle.High,
		Low:       candle.Low,
		Close:     candle.Close,
		Volume:    candle.Volume,
	})
	if err != nil {
		return fmt.Errorf("marshal candle event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(candle.Symbol + ":" + candle.Timeframe),
		Value: value,
		Time:  candle.Time(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish candle open_time=%d to %s: %w", candle.OpenTime, p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaCandlePublisher) Close() error {
	return p.writer.Close()
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
