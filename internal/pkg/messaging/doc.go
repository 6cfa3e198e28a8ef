// Package messaging provides a broker-agnostic API for publishing and
// consuming events.
//
// Use cases depend on the Messaging interface only, so the broker (NSQ,
// NATS, Kafka or Google Pub/Sub) is picked at startup through NewFromDriver.
// Consumers get at-least-once delivery: a handler error nacks the message
// when auto-ack is enabled, and the broker decides when to redeliver.
package messaging
