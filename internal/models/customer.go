package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the minimal record the bot's lookup and add-customer commands
// operate on. The CRM's full customer module lives elsewhere; this store
// only backs the chat channel.
type Customer struct {
	ID        string `json:"id"` // UUID
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Location  string `json:"location,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// NewCustomer creates a customer with a generated UUID.
func NewCustomer(name, phone, location string) *Customer {
	return &Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		Location:  location,
		CreatedAt: time.Now().Unix(),
	}
}
