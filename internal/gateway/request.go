package gateway

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

var validate = validator.New()

// PaymentRequest carries everything a gateway needs to initiate a payment.
// It is built once per call and never mutated afterwards, so it is safe to
// share across goroutines.
type PaymentRequest struct {
	OrderID       string `validate:"required"`
	Amount        Amount `validate:"-"`
	CustomerEmail string `validate:"required,email"`
	CustomerName  string `validate:"omitempty,max=255"`
	Description   string `validate:"omitempty,max=1024"`
	CallbackURL   string `validate:"omitempty,url"`
	WebhookURL    string `validate:"omitempty,url"`
	Metadata      map[string]any `validate:"-"`
}

// NewPaymentRequest builds and validates a payment request.
func NewPaymentRequest(orderID string, amount Amount, customerEmail string) (*PaymentRequest, error) {
	req := &PaymentRequest{
		OrderID:       orderID,
		Amount:        amount,
		CustomerEmail: customerEmail,
		Metadata:      make(map[string]any),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks structural validity of the request.
func (r *PaymentRequest) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return errors.NewValidationError(f.Field(), "failed on rule "+f.Tag())
		}
		return errors.NewValidationError("request", err.Error())
	}
	return nil
}
