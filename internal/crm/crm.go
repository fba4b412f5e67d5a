// Package crm holds the business entities the gateway's tools act on
// (customers and their tickets) and the store contract the persistence
// layer implements. The confirmation/idempotency core never touches these
// tables directly; all reads and single-field mutations go through Store.
package crm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCustomerNotFound is returned when a referenced customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidInput is returned for malformed or out-of-range tool input.
	ErrInvalidInput = errors.New("invalid input")
)

// Customer is a CRM account.
type Customer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Ticket is a support ticket attached to a customer.
type Ticket struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the business-entity collaborator consumed by the tools.
type Store interface {
	// SearchCustomers returns customers whose name contains the query,
	// case-insensitively. No match yields an empty slice, not an error.
	SearchCustomers(ctx context.Context, query string) ([]Customer, error)

	// GetCustomer looks up a customer by id. Returns ErrCustomerNotFound
	// if absent.
	GetCustomer(ctx context.Context, id int64) (Customer, error)

	// ListCustomers returns all customers.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// UpdateCustomerStatus applies a single-field status change and returns
	// the updated customer. Returns ErrCustomerNotFound if absent.
	UpdateCustomerStatus(ctx context.Context, id int64, status string) (Customer, error)

	// CreateTicket inserts a ticket and returns it with its assigned id and
	// creation time. Returns ErrCustomerNotFound if the customer is absent.
	CreateTicket(ctx context.Context, t Ticket) (Ticket, error)

	// CountTickets returns the total number of tickets.
	CountTickets(ctx context.Context) (int, error)
}
