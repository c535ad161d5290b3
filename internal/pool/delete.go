package pool

import "context"

// DeleteOptions drive one bulk delete.
type DeleteOptions struct {
	Tag         string
	MyPoolEmail string
	// AllOrgs includes assigned orgs; by default only unassigned ones go.
	AllOrgs bool
	// InProgressOnly restricts to orgs still provisioning (cleanup of runs
	// that died mid-flight).
	InProgressOnly bool
}

// DeleteResult reports the orgs transitioned to deleted and the ones whose
// delete failed.
type DeleteResult struct {
	Deleted []Row
	Failed  []Row
}

// Delete bulk-deletes the matching orgs via the signup API. This reclaims
// remote capacity; the pool-table rows are the remote system's to cascade.
func (o *Ops) Delete(ctx context.Context, opts DeleteOptions) (*DeleteResult, error) {
	rows, err := o.store.Rows(ctx, opts.Tag, RowQuery{
		MyPoolEmail:    opts.MyPoolEmail,
		InProgressOnly: opts.InProgressOnly,
	})
	if err != nil {
		return nil, err
	}

	res := &DeleteResult{}
	for _, row := range rows {
		if row.Status == StatusAssigned && !opts.AllOrgs && !opts.InProgressOnly {
			continue
		}
		if err := o.store.DeleteOrg(ctx, row.OrgID); err != nil {
			o.log.Warn().Str("org", row.Username).Err(err).Msg("org delete failed")
			res.Failed = append(res.Failed, row)
			continue
		}
		row.Status = StatusDeleted
		res.Deleted = append(res.Deleted, row)
	}
	return res, nil
}
