// Package source implements feed transports.
//
//   - Postgres: LISTEN on a channel notified by a row-change trigger (pgx).
//   - NATS: subject subscription.
//   - AMQP: queue consumer with manual acks.
//   - WebSocket: realtime gateway; a subscribe message names the table.
//   - Memory: channel fed by Push, for tests and headless runs.
//
// Every transport delivers raw postgres-changes documents; decoding and
// eligibility live in package feed.
package source
