package domain

import (
	"time"
)

type Role string

const (
	RoleReceptionist Role = "receptionist"
	RoleDoctor       Role = "doctor"
	RoleAdmin        Role = "admin"
)

// User is a clinic staff account. Patients never log in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
