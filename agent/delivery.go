package agent

import (
	"context"

	"github.com/tbxark/formdoc/filler"
)

// Delivery hands generated documents to the recipient of the session in the context.
// The batch directory is removed right after Deliver returns.
type Delivery interface {
	Deliver(ctx context.Context, batch *filler.Batch) error
}

type DeliveryFunc func(ctx context.Context, batch *filler.Batch) error

func (f DeliveryFunc) Deliver(ctx context.Context, batch *filler.Batch) error {
	return f(ctx, batch)
}
