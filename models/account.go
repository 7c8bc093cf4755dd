package models

import "time"

// NewAccount is a signup request after the password has been hashed.
type NewAccount struct {
	Username     string
	Email        string
	PasswordHash string
	Phone        string
	Age          int
	ReferredBy   *int64
}

// Credentials is what login compares a password against.
type Credentials struct {
	UserID       int64
	PasswordHash string
}

// AccountCreated is the stored account returned after signup.
type AccountCreated struct {
	ID        int64
	CreatedAt time.Time
}
