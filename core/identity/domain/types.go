package domain

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

type (
	// User is an account. PasswordHash is only read by Login and never leaves the package boundary.
	User struct {
		ID           uuid.UUID
		Username     string
		Email        string
		FirstName    string
		LastName     string
		Pic          *string
		IsActive     bool
		IsStaff      bool
		IsBrandOwner bool
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Registration struct {
		Username  string
		Email     string
		Password  string
		FirstName string
		LastName  string
	}

	// UserChanges is a PATCH body. An explicit null clears the field.
	UserChanges struct {
		FirstName nullable.Nullable[string]
		LastName  nullable.Nullable[string]
		Pic       nullable.Nullable[string]
	}

	// Session is the result of Register and Login.
	Session struct {
		User      *User
		Token     string
		ExpiresAt time.Time
	}

	// Actor is the authenticated caller. The zero value is anonymous.
	Actor struct {
		UserID  uuid.UUID
		IsStaff bool
	}
)

func (a Actor) Anonymous() bool { return a.UserID.IsNil() }
