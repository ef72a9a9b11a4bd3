// Package messaging publishes and consumes domain events without tying use
// cases to a broker. Drivers exist for NATS, Kafka, NSQ, Google Pub/Sub and
// an in-process memory broker for tests and single-node runs.
package messaging
