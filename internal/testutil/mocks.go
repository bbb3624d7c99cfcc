// Package testutil provides in-memory mocks shared across test packages.
package testutil

import (
	"context"
	"sync"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
)

// --- Transaction Repository Mock ---

// MockTransactionRepository is an in-memory transaction.Repository. The
// *Func fields override individual methods when set.
type MockTransactionRepository struct {
	mu      sync.Mutex
	byOrder map[string]*transaction.Transaction

	CreateFunc func(ctx context.Context, t *transaction.Transaction) error
	UpdateFunc func(ctx context.Context, t *transaction.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		byOrder: make(map[string]*transaction.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byOrder[t.OrderID]; exists {
		return domainErrors.NewDomainError("duplicate_order",
			"a transaction already exists for order "+t.OrderID, domainErrors.ErrInvalidInput)
	}
	m.byOrder[t.OrderID] = t
	return nil
}

func (m *MockTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byOrder[orderID]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	return t, nil
}

func (m *MockTransactionRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byOrder {
		if t.GatewayTransactionID != nil && *t.GatewayTransactionID == gatewayTxnID {
			return t, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byOrder[t.OrderID]; !ok {
		return domainErrors.ErrTransactionNotFound
	}
	m.byOrder[t.OrderID] = t
	return nil
}

func (m *MockTransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*transaction.Transaction
	for _, t := range m.byOrder {
		if f.Gateway != "" && t.Gateway != f.Gateway {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// --- Webhook Deduper Mock ---

// MockDeduper remembers claimed bodies in memory.
type MockDeduper struct {
	mu      sync.Mutex
	claimed map[string]bool

	ClaimFunc func(ctx context.Context, gatewayName string, body []byte) (bool, error)
}

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{claimed: make(map[string]bool)}
}

func (d *MockDeduper) Claim(ctx context.Context, gatewayName string, body []byte) (bool, error) {
	if d.ClaimFunc != nil {
		return d.ClaimFunc(ctx, gatewayName, body)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := gatewayName + ":" + string(body)
	if d.claimed[key] {
		return false, nil
	}
	d.claimed[key] = true
	return true, nil
}
