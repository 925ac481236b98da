package model

import "time"

// AdminID uniquely identifies an admin account
type AdminID string

// RoleAdmin is the only role the console knows about
const RoleAdmin = "admin"

// Admin is an operator account allowed to use the console
type Admin struct {
	ID           AdminID   `json:"id"`
	Email        string    `json:"email"` // login identifier, stored lower case
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"` // bcrypt hash
	CreatedAt    time.Time `json:"createdAt"`
}
