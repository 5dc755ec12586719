package entity

import "time"

const (
	RoleCustomer   = "customer"
	RoleShopkeeper = "shopkeeper"
)

// User is owned by the account service; the chat core only reads it.
type User struct {
	ID        string    `json:"id" firestore:"id" yaml:"id"`
	Name      string    `json:"name" firestore:"name" yaml:"name"`
	Email     string    `json:"email" firestore:"email" yaml:"email"`
	Role      string    `json:"role" firestore:"role" yaml:"role"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt" yaml:"-"`
}

type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}
