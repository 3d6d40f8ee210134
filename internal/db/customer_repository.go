package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for the bot-facing customer store
type CustomerRepository interface {
	Create(customer *models.Customer) error
	GetByPhone(phone string) (*models.Customer, error)
	SearchByName(name string, limit int) ([]*models.Customer, error)
}

// customerRepository implements CustomerRepository interface
type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create inserts a customer, generating a UUID when none is set.
func (r *customerRepository) Create(customer *models.Customer) error {
	if customer == nil {
		return fmt.Errorf("customer cannot be nil")
	}
	if customer.Name == "" {
		return fmt.Errorf("customer name cannot be empty")
	}
	if customer.Phone == "" {
		return fmt.Errorf("customer phone cannot be empty")
	}

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if customer.CreatedAt == 0 {
		customer.CreatedAt = time.Now().Unix()
	}

	_, err := r.db.Exec(
		`INSERT INTO customers (id, name, phone, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		customer.ID, customer.Name, customer.Phone, customer.Location, customer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByPhone retrieves a customer by exact phone number. Returns (nil, nil)
// when no customer matches.
func (r *customerRepository) GetByPhone(phone string) (*models.Customer, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	customer := &models.Customer{}
	err := r.db.QueryRow(
		`SELECT id, name, phone, location, created_at FROM customers WHERE phone = ?`,
		phone,
	).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Location, &customer.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}

	return customer, nil
}

// SearchByName retrieves customers whose name contains the given fragment.
func (r *customerRepository) SearchByName(name string, limit int) ([]*models.Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.Query(
		`SELECT id, name, phone, location, created_at FROM customers
		 WHERE name LIKE ? ORDER BY name LIMIT ?`,
		"%"+name+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Location, &customer.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}
