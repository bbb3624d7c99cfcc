package service

import (
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/infrastructure/observability"
)

// MetricsHook bridges dispatch outcomes into Prometheus counters. Register it
// with Manager.OnOutcome.
func MetricsHook(m *observability.Metrics) gateway.OutcomeHook {
	return func(o gateway.Outcome) {
		outcome := outcomeLabel(o)
		switch o.Operation {
		case gateway.OpPay:
			m.PaymentsTotal.WithLabelValues(o.Gateway, outcome).Inc()
		case gateway.OpVerify:
			m.WebhooksTotal.WithLabelValues(o.Gateway, outcome).Inc()
		case gateway.OpRefund:
			m.RefundsTotal.WithLabelValues(o.Gateway, outcome).Inc()
		}
		if o.Err != nil {
			m.DispatchErrors.WithLabelValues(o.Gateway, o.Operation).Inc()
		}
	}
}

func outcomeLabel(o gateway.Outcome) string {
	switch {
	case o.Err != nil:
		return "error"
	case o.Operation == gateway.OpRefund:
		if o.Refunded {
			return "success"
		}
		return "declined"
	case o.Response != nil && !o.Response.Success:
		return "declined"
	default:
		return "success"
	}
}
