package models

import (
	"fmt"
)

var (
	ErrUserNotFound = fmt.Errorf("user not found")
)

type User struct {
	BaseModel

	Email    string
	Password string
	Name     string
}
