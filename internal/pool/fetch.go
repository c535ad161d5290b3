package pool

import (
	"context"

	"github.com/zpdzap/orgpool/internal/authstore"
	"github.com/zpdzap/orgpool/internal/notify"
)

// FetchOptions drive one claim attempt.
type FetchOptions struct {
	Tag string
	// MyPoolEmail restricts candidates to orgs this user signed up.
	MyPoolEmail string
	// Alias, when set, stores the claimed org's session locally under it.
	Alias string
	// SendTo, when set, mails the claimed credentials to a third party.
	SendTo string
}

// Fetch claims one available org. Candidates are tried oldest first; a row
// lost to a racing claimer is skipped, not an error. Returns ErrNotFound
// when every candidate is gone.
func (o *Ops) Fetch(ctx context.Context, opts FetchOptions) (*Row, error) {
	rows, err := o.store.AvailableRows(ctx, opts.Tag, opts.MyPoolEmail)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		claimed, err := o.store.Claim(ctx, row)
		if err != nil {
			return nil, err
		}
		if !claimed {
			o.log.Debug().Str("org", row.Username).Msg("claim raced, trying next candidate")
			continue
		}

		row.Status = StatusAssigned
		o.log.Info().Str("org", row.Username).Str("tag", opts.Tag).Msg("scratch org claimed")
		o.afterClaim(ctx, opts, row)
		return &row, nil
	}

	return nil, ErrNotFound
}

// afterClaim runs the optional side channels. Neither can fail the claim.
func (o *Ops) afterClaim(ctx context.Context, opts FetchOptions, row Row) {
	if opts.SendTo != "" && o.notifier != nil {
		err := o.notifier.SendCredentials(ctx, opts.SendTo, notify.Credentials{
			Username:       row.Username,
			Password:       row.Password,
			LoginURL:       row.LoginURL,
			ExpirationDate: row.ExpirationDate,
		})
		if err != nil {
			o.log.Warn().Err(err).Msg("credential mail failed")
		}
	}

	if opts.Alias != "" && o.auth != nil {
		if !authstore.ValidAuthURL(row.SfdxAuthURL) {
			// Malformed or missing token: skip auto-auth, the claim stands.
			o.log.Debug().Str("org", row.Username).Msg("no usable stored auth url, skipping auto-auth")
			return
		}
		err := o.auth.SaveOrgAuth(opts.Alias, authstore.OrgAuth{
			Username: row.Username,
			AuthURL:  row.SfdxAuthURL,
		})
		if err != nil {
			o.log.Warn().Err(err).Msg("saving org session failed")
		}
	}
}
