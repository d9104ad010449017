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
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

const detailBadCredentials = "No active account found with the given credentials"

// Register creates an account and its cart, and signs the caller in.
func (app *Application) Register(ctx context.Context, r Registration) (*Session, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if fields := validateRegistration(r); len(fields) > 0 {
		return nil, &DomainError{Kind: ErrInvalidData, Detail: "Invalid registration details.", Fields: fields}
	}

	hash, err := app.hasher.Hash(r.Password)
	if err != nil {
		return nil, unhandled(ctx, "register", err)
	}

	now := app.now()
	u, err := app.store.CreateUserWithCart(ctx, User{
		ID:           app.newID(),
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, app.newID())
	if errors.Is(err, ErrDuplicate) {
		return nil, fail(ErrDuplicate, "A user with that username or email already exists.")
	}
	if err != nil {
		return nil, unhandled(ctx, "register", err)
	}

	return app.session(ctx, u)
}

// Login accepts a username or an email. Unknown users, inactive users and
// wrong passwords are indistinguishable to the caller.
func (app *Application) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fail(ErrInvalidData, "Both login and password are required.")
	}

	u, err := app.store.GetUserByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return nil, fail(ErrUnauthenticated, detailBadCredentials)
	}
	if err != nil {
		return nil, unhandled(ctx, "login", err)
	}

	if err := app.hasher.Check(u.PasswordHash, password); err != nil || !u.IsActive {
		return nil, fail(ErrUnauthenticated, detailBadCredentials)
	}

	return app.session(ctx, u)
}

func (app *Application) session(ctx context.Context, u *User) (*Session, error) {
	tok, exp, err := app.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, unhandled(ctx, "issue token", err)
	}
	return &Session{User: u, Token: tok, ExpiresAt: exp}, nil
}

func validateRegistration(r Registration) map[string]string {
	fields := map[string]string{}

	switch {
	case r.Username == "":
		fields["username"] = "This field is required."
	case len(r.Username) > 150:
		fields["username"] = "Ensure this field has no more than 150 characters."
	case !validUsername(r.Username):
		fields["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}

	if r.Email == "" {
		fields["email"] = "This field is required."
	} else if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		fields["email"] = "Enter a valid email address."
	}

	if len([]rune(r.Password)) < minPasswordLen {
		fields["password"] = "This password is too short. It must contain at least 8 characters."
	}

	return fields
}

func validUsername(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}
