package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

func TestContext_Execute(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	resp, err := m.NewContext().
		Using("stripe").
		With(validRequest()).
		Execute(context.Background())

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestContext_Execute_OrderIndependent(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	resp, err := m.NewContext().
		With(validRequest()).
		Using("stripe").
		Execute(context.Background())

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestContext_Execute_WithoutGateway(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	_, err := m.NewContext().With(validRequest()).Execute(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrIncompleteContext)
}

func TestContext_Execute_WithoutRequest(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	_, err := m.NewContext().Using("stripe").Execute(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrIncompleteContext)
}

func TestContext_Execute_Empty(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	_, err := m.NewContext().Execute(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrIncompleteContext)
}

func TestContext_Execute_Twice(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	ctx := m.NewContext().Using("stripe").With(validRequest())

	_, err := ctx.Execute(context.Background())
	require.NoError(t, err)

	_, err = ctx.Execute(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrContextExecuted)
}

func TestContext_ExecutedIsTerminal(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	ctx := m.NewContext().Using("stripe").With(validRequest())
	_, err := ctx.Execute(context.Background())
	require.NoError(t, err)

	// Re-arming an executed context must not make it executable again.
	ctx.Using("stripe").With(validRequest())
	_, err = ctx.Execute(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrContextExecuted)
}
