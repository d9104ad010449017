package domain

import (
	"time"

	"storefront/modules/clock"

	"github.com/gofrs/uuid/v5"
)

const (
	minPasswordLen = 8
	maxPageSize    = 100
)

type (
	Application struct {
		store  UserStore
		tokens TokenIssuer
		hasher PasswordHasher
		clock  clock.Clock
	}

	Deps struct {
		Store  UserStore
		Tokens TokenIssuer
		Hasher PasswordHasher
		Clock  clock.Clock
	}
)

func NewApp(d Deps) *Application {
	app := &Application{
		store:  d.Store,
		tokens: d.Tokens,
		hasher: d.Hasher,
		clock:  d.Clock,
	}
	if app.clock == nil {
		app.clock = clock.RealClockProvider()
	}
	return app
}

func (app *Application) newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func (app *Application) now() time.Time {
	return app.clock.Now().UTC()
}

// selfOrStaff passes the account owner and staff.
func selfOrStaff(a Actor, id uuid.UUID) error {
	if a.Anonymous() {
		return ErrUnauthenticated
	}
	if a.UserID != id && !a.IsStaff {
		return ErrForbidden
	}
	return nil
}
