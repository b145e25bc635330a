package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoDefault is returned when a user has no default address of the
// requested type.
var ErrNoDefault = errors.New("no default address")

// Type distinguishes shipping addresses from billing addresses.
type Type string

const (
	TypeShipping Type = "S"
	TypeBilling  Type = "B"
)

// Division enumerates the administrative regions a storefront order can
// ship to.
type Division string

const (
	DivisionBarishal   Division = "BAR"
	DivisionChittagong Division = "CHI"
	DivisionDhaka      Division = "DHA"
	DivisionKhulna     Division = "KHU"
	DivisionMymensingh Division = "MYM"
	DivisionRajshahi   Division = "RAJ"
	DivisionRangpur    Division = "RAN"
	DivisionSylhet     Division = "SYL"
)

// Valid reports whether d is one of the known divisions.
func (d Division) Valid() bool {
	switch d {
	case DivisionBarishal, DivisionChittagong, DivisionDhaka, DivisionKhulna,
		DivisionMymensingh, DivisionRajshahi, DivisionRangpur, DivisionSylhet:
		return true
	}
	return false
}

// Address is a stored shipping or billing address belonging to a user.
type Address struct {
	ID       int64
	UserID   int64
	Street   string
	Street2  string
	Division Division
	Country  string
	ZipCode  string
	Type     Type
	Default  bool
}

// Repository defines persistence operations for addresses.
type Repository interface {
	// FindDefault returns the user's default address of the given type,
	// or ErrNoDefault.
	FindDefault(ctx context.Context, userID int64, t Type) (*Address, error)
	// Create persists a new address and fills in its ID.
	Create(ctx context.Context, a *Address) error
	// MakeDefault marks the address as the user's default for the given
	// type, clearing any previous default in the same transaction.
	MakeDefault(ctx context.Context, userID int64, t Type, addressID int64) error
}
