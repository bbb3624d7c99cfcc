// Package gateways wires the supported gateway roster into a registry.
// Names without a real provider adapter resolve to deterministic stubs that
// honor the full contract, so callers keep a stable surface while adapters
// are integrated one by one.
package gateways

import (
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/gateways/razorpay"
	"github.com/mdiqbalhossan/paygate/internal/gateways/stub"
)

// hostedCheckout lists roster gateways whose flows go through a provider-
// hosted page, so their stubs return redirect responses.
var hostedCheckout = map[string]string{
	"stripe":   "https://checkout.stripe.com/pay",
	"paypal":   "https://www.paypal.com/checkoutnow",
	"mollie":   "https://www.mollie.com/checkout",
	"klarna":   "https://pay.klarna.com/session",
	"payu":     "https://secure.payu.com/pay",
	"paystack": "https://checkout.paystack.com",
}

// noRefund lists roster gateways whose providers expose no refund API.
var noRefund = map[string]bool{
	"sslcommerz": true,
	"instamojo":  true,
}

// roster is the full set of supported gateway names.
var roster = []string{
	"stripe", "paypal", "razorpay", "paystack", "flutterwave", "mollie",
	"square", "braintree", "authorizenet", "twocheckout", "paytm", "payu",
	"mercadopago", "klarna", "adyen", "skrill", "sslcommerz", "instamojo",
	"iyzico", "midtrans", "cashfree",
}

// RegisterBuiltins registers every supported gateway with the registry.
func RegisterBuiltins(reg *gateway.Registry) error {
	for _, name := range roster {
		if err := reg.Register(name, factoryFor(name)); err != nil {
			return err
		}
	}
	return nil
}

// Roster returns a copy of the supported gateway names.
func Roster() []string {
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

func factoryFor(name string) gateway.Factory {
	if name == "razorpay" {
		return func() gateway.Gateway { return razorpay.New() }
	}

	var opts []stub.Option
	if base, ok := hostedCheckout[name]; ok {
		opts = append(opts, stub.WithHostedCheckout(base))
	}
	if noRefund[name] {
		opts = append(opts, stub.WithoutRefunds())
	}
	return func() gateway.Gateway { return stub.New(name, opts...) }
}
