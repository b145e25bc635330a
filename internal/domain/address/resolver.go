package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Sentinel errors for checkout submission. Both are recoverable: the caller
// should send the user back to the checkout form.
var (
	ErrNoDefaultShipping = errors.New("no default shipping address")
	ErrNoDefaultBilling  = errors.New("no default billing address")
)

// ValidationError reports required address fields that were left empty.
// Fields are considered missing when they are the literal empty string;
// no trimming or normalization is applied.
type ValidationError struct {
	Type    Type
	Missing []string
}

func (e *ValidationError) Error() string {
	kind := "shipping"
	if e.Type == TypeBilling {
		kind = "billing"
	}
	return fmt.Sprintf("missing required %s address fields: %s", kind, strings.Join(e.Missing, ", "))
}

// Form is the parsed checkout address form. Field names mirror the checkout
// page inputs; the presentation layer hands them over already parsed.
type Form struct {
	ShippingStreet   string
	ShippingStreet2  string
	ShippingCountry  string
	ShippingDivision Division
	ShippingZip      string

	BillingStreet   string
	BillingStreet2  string
	BillingCountry  string
	BillingDivision Division
	BillingZip      string

	UseDefaultShipping bool
	SetDefaultShipping bool
	SameBillingAddress bool
	UseDefaultBilling  bool
	SetDefaultBilling  bool
}

// OrderWriter attaches resolved addresses to an order. Implemented by the
// order repository.
type OrderWriter interface {
	SetShippingAddress(ctx context.Context, orderID, addressID int64) error
	SetBillingAddress(ctx context.Context, orderID, addressID int64) error
}

// Resolver selects or creates the shipping and billing addresses for an
// order during checkout submission.
//
// Resolution is deliberately not transactional across the two addresses:
// a saved shipping address survives a billing failure, so the user does not
// re-enter it on retry.
type Resolver struct {
	addresses Repository
	orders    OrderWriter
}

// NewResolver creates a Resolver backed by the given repositories.
func NewResolver(addresses Repository, orders OrderWriter) *Resolver {
	return &Resolver{addresses: addresses, orders: orders}
}

// Resolve applies the form's address choices to the order. It returns the
// resolved shipping address so the billing branch can clone it when
// "same as shipping" is chosen.
func (r *Resolver) Resolve(ctx context.Context, userID, orderID int64, form Form) error {
	shipping, err := r.resolveShipping(ctx, userID, orderID, form)
	if err != nil {
		return err
	}
	return r.resolveBilling(ctx, userID, orderID, form, shipping)
}

func (r *Resolver) resolveShipping(ctx context.Context, userID, orderID int64, form Form) (*Address, error) {
	if form.UseDefaultShipping {
		a, err := r.addresses.FindDefault(ctx, userID, TypeShipping)
		if err != nil {
			if errors.Is(err, ErrNoDefault) {
				return nil, ErrNoDefaultShipping
			}
			return nil, errors.Wrap(err, "find default shipping address")
		}
		if err := r.orders.SetShippingAddress(ctx, orderID, a.ID); err != nil {
			return nil, errors.Wrap(err, "attach shipping address")
		}
		return a, nil
	}

	if missing := missingFields(form.ShippingStreet, form.ShippingCountry, string(form.ShippingDivision), form.ShippingZip); len(missing) > 0 {
		return nil, &ValidationError{Type: TypeShipping, Missing: missing}
	}

	a := &Address{
		UserID:   userID,
		Street:   form.ShippingStreet,
		Street2:  form.ShippingStreet2,
		Division: form.ShippingDivision,
		Country:  form.ShippingCountry,
		ZipCode:  form.ShippingZip,
		Type:     TypeShipping,
	}
	if err := r.addresses.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create shipping address")
	}
	if err := r.orders.SetShippingAddress(ctx, orderID, a.ID); err != nil {
		return nil, errors.Wrap(err, "attach shipping address")
	}
	if form.SetDefaultShipping {
		if err := r.addresses.MakeDefault(ctx, userID, TypeShipping, a.ID); err != nil {
			return nil, errors.Wrap(err, "set default shipping address")
		}
		a.Default = true
	}
	return a, nil
}

func (r *Resolver) resolveBilling(ctx context.Context, userID, orderID int64, form Form, shipping *Address) error {
	switch {
	case form.SameBillingAddress:
		// Clone the shipping address into a distinct billing row. A copy,
		// not a reference: later edits to one must not affect the other.
		clone := &Address{
			UserID:   userID,
			Street:   shipping.Street,
			Street2:  shipping.Street2,
			Division: shipping.Division,
			Country:  shipping.Country,
			ZipCode:  shipping.ZipCode,
			Type:     TypeBilling,
		}
		if err := r.addresses.Create(ctx, clone); err != nil {
			return errors.Wrap(err, "clone billing address")
		}
		if err := r.orders.SetBillingAddress(ctx, orderID, clone.ID); err != nil {
			return errors.Wrap(err, "attach billing address")
		}
		return nil

	case form.UseDefaultBilling:
		a, err := r.addresses.FindDefault(ctx, userID, TypeBilling)
		if err != nil {
			if errors.Is(err, ErrNoDefault) {
				return ErrNoDefaultBilling
			}
			return errors.Wrap(err, "find default billing address")
		}
		if err := r.orders.SetBillingAddress(ctx, orderID, a.ID); err != nil {
			return errors.Wrap(err, "attach billing address")
		}
		return nil

	default:
		if missing := missingFields(form.BillingStreet, form.BillingCountry, string(form.BillingDivision), form.BillingZip); len(missing) > 0 {
			return &ValidationError{Type: TypeBilling, Missing: missing}
		}

		a := &Address{
			UserID:   userID,
			Street:   form.BillingStreet,
			Street2:  form.BillingStreet2,
			Division: form.BillingDivision,
			Country:  form.BillingCountry,
			ZipCode:  form.BillingZip,
			Type:     TypeBilling,
		}
		if err := r.addresses.Create(ctx, a); err != nil {
			return errors.Wrap(err, "create billing address")
		}
		if err := r.orders.SetBillingAddress(ctx, orderID, a.ID); err != nil {
			return errors.Wrap(err, "attach billing address")
		}
		if form.SetDefaultBilling {
			if err := r.addresses.MakeDefault(ctx, userID, TypeBilling, a.ID); err != nil {
				return errors.Wrap(err, "set default billing address")
			}
			a.Default = true
		}
		return nil
	}
}

var requiredFieldNames = [4]string{"street", "country", "division", "zip_code"}

// missingFields returns the names of required fields that are empty, in the
// fixed order street, country, division, zip_code.
func missingFields(street, country, division, zip string) []string {
	values := [4]string{street, country, division, zip}
	var missing []string
	for i, v := range values {
		if v == "" {
			missing = append(missing, requiredFieldNames[i])
		}
	}
	return missing
}
