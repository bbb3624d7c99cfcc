package transaction

import "context"

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	Gateway string
	Status  Status
	Limit   int
	Offset  int
}

// Repository persists transaction records.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	GetByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}
