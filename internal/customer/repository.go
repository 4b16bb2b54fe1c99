package customer

import (
	"context"
	"errors"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
)

// Repository defines the interface for customer storage.
// Lookups and mutations of a missing id return ErrCustomerNotFound.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Customer, error)
	Delete(ctx context.Context, id int64) (*Customer, error)
}

// Publisher receives notifications about customer changes
type Publisher interface {
	CustomerCreated(ctx context.Context, c *Customer) error
	CustomerStatusChanged(ctx context.Context, c *Customer) error
	CustomerDeleted(ctx context.Context, c *Customer) error
}
