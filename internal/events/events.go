// Copyright 2026 The crmd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events publishes customer change notifications.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/crmd/crmd/internal/customer"
	"github.com/google/uuid"
	"go.nhat.io/clock"
)

// Event types
const (
	TypeCustomerCreated       = "customer.created"
	TypeCustomerStatusChanged = "customer.status_changed"
	TypeCustomerDeleted       = "customer.deleted"
)

// Event is a single customer change notification
type Event struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	CustomerID int64              `json:"customer_id"`
	Customer   *customer.Customer `json:"customer"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Publisher delivers events to a sink
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Notifier adapts a Publisher to the customer service's notification hooks
type Notifier struct {
	publisher Publisher
	clock     clock.Clock
}

// NewNotifier creates a notifier. A nil clock uses the wall clock.
func NewNotifier(publisher Publisher, c clock.Clock) *Notifier {
	if c == nil {
		c = clock.New()
	}
	return &Notifier{publisher: publisher, clock: c}
}

// CustomerCreated publishes customer.created
func (n *Notifier) CustomerCreated(ctx context.Context, c *customer.Customer) error {
	return n.publish(ctx, TypeCustomerCreated, c)
}

// CustomerStatusChanged publishes customer.status_changed
func (n *Notifier) CustomerStatusChanged(ctx context.Context, c *customer.Customer) error {
	return n.publish(ctx, TypeCustomerStatusChanged, c)
}

// CustomerDeleted publishes customer.deleted
func (n *Notifier) CustomerDeleted(ctx context.Context, c *customer.Customer) error {
	return n.publish(ctx, TypeCustomerDeleted, c)
}

func (n *Notifier) publish(ctx context.Context, eventType string, c *customer.Customer) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}

	return n.publisher.Publish(ctx, Event{
		ID:         id.String(),
		Type:       eventType,
		CustomerID: c.ID,
		Customer:   c,
		OccurredAt: n.clock.Now().UTC(),
	})
}
