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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/crmd/crmd/internal/customer"
	"go.nhat.io/clock"
)

var customerColumns = []string{"id", "name", "email", "phone", "status", "created_at", "updated_at"}

// CustomerRepository implements customer.Repository
type CustomerRepository struct {
	db    *DB
	clock clock.Clock
	sq    squirrel.StatementBuilderType
}

// NewCustomerRepository creates a new customer repository. A nil clock uses the wall clock.
func NewCustomerRepository(db *DB, c clock.Clock) *CustomerRepository {
	if c == nil {
		c = clock.New()
	}
	return &CustomerRepository{
		db:    db,
		clock: c,
		sq:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a customer and sets its generated ID, stored status and timestamps
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	now := r.clock.Now().UTC()

	query, args, err := r.sq.Insert("customers").
		Columns("name", "email", "phone", "status", "created_at", "updated_at").
		Values(c.Name, c.Email, c.Phone, c.Status, now, now).
		Suffix("RETURNING id, status").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if err := r.db.querier(ctx).QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Status); err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	c.CreatedAt = now
	c.UpdatedAt = now

	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query, args, err := r.sq.Select(customerColumns...).
		From("customers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	c, err := scanCustomer(r.db.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, "get customer")
	}
	return c, nil
}

// List returns every customer ordered by ID. It never returns a nil slice.
func (r *CustomerRepository) List(ctx context.Context) ([]*customer.Customer, error) {
	query, args, err := r.sq.Select(customerColumns...).
		From("customers").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}

// UpdateStatus sets the status in a single statement and returns the updated row
func (r *CustomerRepository) UpdateStatus(ctx context.Context, id int64, status string) (*customer.Customer, error) {
	query, args, err := r.sq.Update("customers").
		Set("status", status).
		Set("updated_at", r.clock.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(customerColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	c, err := scanCustomer(r.db.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, "update customer status")
	}
	return c, nil
}

// Delete removes a customer in a single statement and returns the removed row
func (r *CustomerRepository) Delete(ctx context.Context, id int64) (*customer.Customer, error) {
	query, args, err := r.sq.Delete("customers").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(customerColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete: %w", err)
	}

	c, err := scanCustomer(r.db.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, "delete customer")
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row scanner) (*customer.Customer, error) {
	var c customer.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customer.ErrCustomerNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
