// Package queue defines the audit messages exchanged over RabbitMQ and
// the consumer that persists them.
package queue

import "time"

// AuditQueue is the durable queue audit events are published to.
const AuditQueue = "catalog.audit"

// CatalogEvent records one admin mutation or broadcast.
type CatalogEvent struct {
    ID         string    `json:"id"`
    Action     string    `json:"action"` // movie.upserted, movie.deleted, category.added, ...
    ActorID    int64     `json:"actor_id"`
    Subject    string    `json:"subject"`
    OccurredAt time.Time `json:"occurred_at"`
}
