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

package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crmd/crmd/internal/observability/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Operation names recorded on the operations counter
const (
	OpCreate       = "create"
	OpList         = "list"
	OpGet          = "get"
	OpUpdateStatus = "update_status"
	OpDelete       = "delete"
)

// Service provides customer management business logic
type Service struct {
	repo       Repository
	publisher  Publisher
	operations metric.Int64Counter
}

// NewService creates a new customer service.
// publisher and operations may be nil.
func NewService(repo Repository, publisher Publisher, operations metric.Int64Counter) *Service {
	if operations == nil {
		operations = noop.Int64Counter{}
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		operations: operations,
	}
}

// Create validates the input and stores a new customer with the default status
func (s *Service) Create(ctx context.Context, in CreateInput) (*Customer, error) {
	if err := Validate(in); err != nil {
		s.record(ctx, OpCreate, err)
		return nil, err
	}

	c := &Customer{
		Name:   in.Name,
		Email:  in.Email,
		Phone:  in.Phone,
		Status: DefaultStatus,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.record(ctx, OpCreate, err)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	s.record(ctx, OpCreate, nil)

	s.notify(ctx, "customer.created", c, func(p Publisher) error {
		return p.CustomerCreated(ctx, c)
	})

	return c, nil
}

// List returns every customer in store order
func (s *Service) List(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.List(ctx)
	s.record(ctx, OpList, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// Get retrieves a customer by ID
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	s.record(ctx, OpGet, err)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateStatus sets the status of an existing customer.
// Only the status changes; it returns ErrCustomerNotFound for unknown ids.
func (s *Service) UpdateStatus(ctx context.Context, id int64, in UpdateStatusInput) (*Customer, error) {
	if err := Validate(in); err != nil {
		s.record(ctx, OpUpdateStatus, err)
		return nil, err
	}

	c, err := s.repo.UpdateStatus(ctx, id, in.Status)
	s.record(ctx, OpUpdateStatus, err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "customer.status_changed", c, func(p Publisher) error {
		return p.CustomerStatusChanged(ctx, c)
	})

	return c, nil
}

// Delete removes a customer and returns its last stored state
func (s *Service) Delete(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.Delete(ctx, id)
	s.record(ctx, OpDelete, err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "customer.deleted", c, func(p Publisher) error {
		return p.CustomerDeleted(ctx, c)
	})

	return c, nil
}

// notify delivers a change notification. Delivery failures are logged and
// never fail the operation that already committed.
func (s *Service) notify(ctx context.Context, event string, c *Customer, publish func(Publisher) error) {
	if s.publisher == nil {
		return
	}
	if err := publish(s.publisher); err != nil {
		slog.WarnContext(ctx, "failed to publish customer event",
			logger.Component("customer"),
			logger.EventType(event),
			logger.CustomerID(c.ID),
			logger.Error(err),
		)
	}
}

func (s *Service) record(ctx context.Context, op string, err error) {
	result := "success"
	var ve *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		result = "invalid"
	case errors.Is(err, ErrCustomerNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))
}
