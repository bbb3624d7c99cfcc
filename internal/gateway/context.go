package gateway

import (
	"context"
	"fmt"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

type contextState int

const (
	stateEmpty contextState = iota
	stateGatewaySelected
	stateReady
	stateExecuted
)

// Context is a fluent builder for a single payment dispatch: select a gateway
// with Using, attach a request with With, then Execute once. It holds no
// state beyond the current build-up and is not safe for concurrent use.
type Context struct {
	manager *Manager
	state   contextState
	gateway string
	request *PaymentRequest
}

// Using selects the gateway to dispatch through.
func (c *Context) Using(name string) *Context {
	c.gateway = name
	c.advance()
	return c
}

// With attaches the payment request.
func (c *Context) With(req *PaymentRequest) *Context {
	c.request = req
	c.advance()
	return c
}

// Execute dispatches the accumulated payment. It is valid exactly once, and
// only after both Using and With have been called.
func (c *Context) Execute(ctx context.Context) (*PaymentResponse, error) {
	switch c.state {
	case stateExecuted:
		return nil, errors.ErrContextExecuted
	case stateReady:
	default:
		return nil, fmt.Errorf("call Using and With before Execute: %w", errors.ErrIncompleteContext)
	}

	c.state = stateExecuted
	return c.manager.Pay(ctx, c.gateway, c.request)
}

func (c *Context) advance() {
	if c.state == stateExecuted {
		return
	}
	switch {
	case c.gateway != "" && c.request != nil:
		c.state = stateReady
	case c.gateway != "":
		c.state = stateGatewaySelected
	}
}
