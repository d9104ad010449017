// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domain

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

type (
	// UserStore persists accounts.
	//
	// CreateUserWithCart inserts the user and its (empty) cart in one transaction,
	// returning ErrDuplicate when the username or email is taken.
	//
	// GetUserByLogin matches login against the username, then the email
	// (case-insensitive), and returns ErrNotFound otherwise.
	//
	// ModifyUser writes the profile fields (first name, last name, pic) of u and
	// returns the stored row.
	UserStore interface {
		CreateUserWithCart(ctx context.Context, u User, cartID uuid.UUID) (*User, error)
		GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
		GetUserByLogin(ctx context.Context, login string) (*User, error)
		ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
		ModifyUser(ctx context.Context, u User) (*User, error)
		DeactivateUser(ctx context.Context, id uuid.UUID) error
	}

	TokenIssuer interface {
		Issue(userID uuid.UUID, username string) (string, time.Time, error)
	}

	PasswordHasher interface {
		Hash(password string) (string, error)
		Check(hash, password string) error
	}
)
