package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opsgate/opsgate/internal/crm"
)

// crmStore implements crm.Store backed by SQLite.
type crmStore struct {
	db *sql.DB
}

// SearchCustomers returns customers whose name contains the query,
// case-insensitively.
func (s *crmStore) SearchCustomers(ctx context.Context, query string) ([]crm.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status FROM customers
		WHERE instr(lower(name), lower(?)) > 0
		ORDER BY id`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCustomers(rows)
}

// GetCustomer looks up a customer by id.
func (s *crmStore) GetCustomer(ctx context.Context, id int64) (crm.Customer, error) {
	var c crm.Customer
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, status FROM customers WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return crm.Customer{}, fmt.Errorf("%w: %d", crm.ErrCustomerNotFound, id)
	}
	if err != nil {
		return crm.Customer{}, fmt.Errorf("sqlite: get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers ordered by id.
func (s *crmStore) ListCustomers(ctx context.Context) ([]crm.Customer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, status FROM customers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCustomers(rows)
}

// UpdateCustomerStatus applies a single-field status change.
func (s *crmStore) UpdateCustomerStatus(ctx context.Context, id int64, status string) (crm.Customer, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE customers SET status = ? WHERE id = ?", status, id,
	)
	if err != nil {
		return crm.Customer{}, fmt.Errorf("sqlite: update customer status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return crm.Customer{}, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return crm.Customer{}, fmt.Errorf("%w: %d", crm.ErrCustomerNotFound, id)
	}
	return s.GetCustomer(ctx, id)
}

// CreateTicket inserts a ticket after verifying the customer exists.
func (s *crmStore) CreateTicket(ctx context.Context, t crm.Ticket) (crm.Ticket, error) {
	if _, err := s.GetCustomer(ctx, t.CustomerID); err != nil {
		return crm.Ticket{}, err
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (customer_id, title, description, priority, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.CustomerID, t.Title, t.Description, t.Priority,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return crm.Ticket{}, fmt.Errorf("sqlite: create ticket: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return crm.Ticket{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}

	t.ID = id
	t.CreatedAt = createdAt
	return t, nil
}

// CountTickets returns the total number of tickets.
func (s *crmStore) CountTickets(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count tickets: %w", err)
	}
	return n, nil
}

func scanCustomers(rows *sql.Rows) ([]crm.Customer, error) {
	var customers []crm.Customer
	for rows.Next() {
		var c crm.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Status); err != nil {
			return nil, fmt.Errorf("sqlite: scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan customers rows: %w", err)
	}
	return customers, nil
}
