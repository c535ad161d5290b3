package pool

import "context"

// ListOptions drive one pool listing.
type ListOptions struct {
	Tag         string
	MyPoolEmail string
	// WithPasswords keeps passwords on the returned rows. Only a consumer
	// listing their own pool gets them.
	WithPasswords bool
}

// ListResult is the status rollup plus the matching rows.
type ListResult struct {
	Total       int
	InUse       int
	Unused      int
	InProvision int
	Rows        []Row
}

// List classifies every row for a tag by status.
func (o *Ops) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	rows, err := o.store.Rows(ctx, opts.Tag, RowQuery{MyPoolEmail: opts.MyPoolEmail})
	if err != nil {
		return nil, err
	}

	res := &ListResult{Total: len(rows), Rows: rows}
	for i, row := range rows {
		switch row.Status {
		case StatusAssigned:
			res.InUse++
		case StatusAvailable:
			res.Unused++
		default:
			res.InProvision++
		}
		if !opts.WithPasswords {
			res.Rows[i].Password = ""
		}
	}
	return res, nil
}
