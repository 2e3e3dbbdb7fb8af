// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafka-go's Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher publishes every artifact as one message keyed by source,
// so a compacted topic holds the latest snapshot per source.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a producer for topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}

	return &KafkaPublisher{writer: w}
}

// Name implements Sink.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Write implements Sink.
func (p *KafkaPublisher) Write(ctx context.Context, a *Artifact) error {
	if err := p.writer.WriteMessages(ctx, artifactMessage(a)); err != nil {
		return eris.Wrapf(err, "publishing %s", a.Source.Name)
	}

	return nil
}

// Close implements Sink.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func artifactMessage(a *Artifact) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(a.Source.Name),
		Value: a.Data,
		Headers: []kafkago.Header{
			{Key: "format", Value: []byte(a.Source.Format)},
			{Key: "output", Value: []byte(a.Source.Output)},
			{Key: "entries", Value: []byte(strconv.Itoa(len(a.Entries)))},
			{Key: "generated_at", Value: []byte(a.Generated.UTC().Format(time.RFC3339))},
		},
	}
}
