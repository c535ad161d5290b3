package pool

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zpdzap/orgpool/internal/authstore"
	"github.com/zpdzap/orgpool/internal/notify"
)

// consumerStore is the slice of the store the consumer operations need.
type consumerStore interface {
	AvailableRows(ctx context.Context, tag, myPoolEmail string) ([]Row, error)
	Claim(ctx context.Context, row Row) (bool, error)
	Rows(ctx context.Context, tag string, q RowQuery) ([]Row, error)
	DeleteOrg(ctx context.Context, orgID string) error
}

// Ops are the pool consumer operations: claim one org, list the pool, bulk
// delete. They run against pools committed by earlier create runs, from
// separate CLI invocations.
type Ops struct {
	store    consumerStore
	notifier notify.Notifier  // nil disables credential mail
	auth     *authstore.Store // nil disables local auto-auth
	log      zerolog.Logger
}

// NewOps wires the consumer operations. notifier and auth are optional.
func NewOps(store consumerStore, notifier notify.Notifier, auth *authstore.Store, log zerolog.Logger) *Ops {
	return &Ops{store: store, notifier: notifier, auth: auth, log: log}
}
