package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zpdzap/orgpool/internal/devhub"
)

// Store is the facade over the remote pool table and the org signup API.
// Thin on purpose: retry and transport concerns live in the devhub client,
// schema differences live in the adapter, and only pool semantics live here.
type Store struct {
	hub    *devhub.Client
	schema SchemaAdapter
	log    zerolog.Logger
}

// NewStore probes the remote schema once and returns a store bound to the
// matching adapter.
func NewStore(ctx context.Context, hub *devhub.Client, log zerolog.Logger) (*Store, error) {
	schema, err := DetectSchema(ctx, hub)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("schema", schema.Name()).Msg("pool schema detected")
	return &Store{hub: hub, schema: schema, log: log}, nil
}

// Schema returns the adapter selected at startup.
func (s *Store) Schema() SchemaAdapter { return s.schema }

// Limits snapshots the remaining org headroom. Read once per run; the plan
// built from it is knowingly not re-validated against concurrent consumption.
func (s *Store) Limits(ctx context.Context) (remaining, maxOrgs int, err error) {
	l, err := s.hub.Limits(ctx)
	if err != nil {
		return 0, 0, err
	}
	return l.ActiveScratchOrgs.Remaining, l.ActiveScratchOrgs.Max, nil
}

// CurrentAllocations counts the live pool rows for a tag, per consumer.
func (s *Store) CurrentAllocations(ctx context.Context, tag string) (map[string]int, error) {
	soql := fmt.Sprintf("SELECT Id, %s FROM %s WHERE %s = '%s'",
		fieldUsername, PoolObject, fieldTag, escape(tag))
	records, err := s.hub.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("counting pool allocations: %w", err)
	}
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Str(fieldUsername)]++
	}
	return counts, nil
}

// CreateOrg requests one org from the signup API. The client retries
// transient failures internally; an error here means retries were exhausted.
// When the signup reports an auth code, the org's auth URL is built from it so
// the committed row supports consumer auto-auth.
func (s *Store) CreateOrg(ctx context.Context, alias, definitionPath string, expiryDays int) (*ScratchOrg, error) {
	info, err := s.hub.CreateScratchOrg(ctx, devhub.SignupRequest{
		Alias:          alias,
		DefinitionPath: definitionPath,
		ExpiryDays:     expiryDays,
		ClientID:       s.hub.RunID(),
	})
	if err != nil {
		return nil, err
	}
	org := &ScratchOrg{
		OrgID:          info.OrgID,
		Username:       info.Username,
		LoginURL:       info.LoginURL,
		ExpirationDate: info.ExpirationDate,
		Status:         StatusProvisioning,
	}
	if info.AuthCode != "" {
		org.SfdxAuthURL = "force://" + info.AuthCode + "@" + loginHost(info.LoginURL)
	}
	return org, nil
}

// SetPassword rotates the org's password.
func (s *Store) SetPassword(ctx context.Context, org *ScratchOrg, password string) error {
	return s.hub.SetPassword(ctx, org.Username, password)
}

// RelaxNetworkAccess authenticates directly against a fresh org and replaces
// its network access allow-list.
func (s *Store) RelaxNetworkAccess(ctx context.Context, org *ScratchOrg, ranges []devhub.IPRange) error {
	orgClient, err := s.hub.LoginPassword(ctx, org.LoginURL, org.Username, org.Password)
	if err != nil {
		return err
	}
	return orgClient.SetNetworkAccess(ctx, ranges)
}

// ResolveRecordIDs looks up the pool-table row ids for a batch of created
// orgs. The table keys rows by the 15-character org id prefix, so the lookup
// goes through that.
func (s *Store) ResolveRecordIDs(ctx context.Context, orgs []*ScratchOrg) error {
	if len(orgs) == 0 {
		return nil
	}

	byPrefix := make(map[string]*ScratchOrg, len(orgs))
	quoted := make([]string, 0, len(orgs))
	for _, org := range orgs {
		prefix := orgIDPrefix(org.OrgID)
		byPrefix[prefix] = org
		quoted = append(quoted, "'"+escape(prefix)+"'")
	}

	soql := fmt.Sprintf("SELECT Id, %s FROM %s WHERE %s IN (%s)",
		fieldOrgID, PoolObject, fieldOrgID, strings.Join(quoted, ","))
	records, err := s.hub.Query(ctx, soql)
	if err != nil {
		return fmt.Errorf("resolving pool record ids: %w", err)
	}

	for _, rec := range records {
		if org, ok := byPrefix[orgIDPrefix(rec.Str(fieldOrgID))]; ok {
			org.RecordID = rec.ID()
		}
	}

	for _, org := range orgs {
		if org.RecordID == "" {
			s.log.Warn().Str("org", org.Username).Msg("no pool record found for created org")
		}
	}
	return nil
}

// MarkAvailable writes the committed org's tag, password and auth URL to its
// pool row. After this write the org is visible to consumers.
func (s *Store) MarkAvailable(ctx context.Context, org *ScratchOrg, tag string) error {
	if org.RecordID == "" {
		return fmt.Errorf("org %s has no resolved pool record", org.Username)
	}
	fields := map[string]any{
		fieldTag:      tag,
		fieldPassword: org.Password,
		fieldStatus:   s.schema.WireValue(StatusAvailable),
	}
	if org.SfdxAuthURL != "" {
		fields[fieldAuthURL] = org.SfdxAuthURL
	}
	return s.hub.UpdateRecord(ctx, PoolObject, org.RecordID, fields)
}

// DeleteOrg reclaims one org's capacity via the signup API.
func (s *Store) DeleteOrg(ctx context.Context, orgID string) error {
	return s.hub.DeleteScratchOrg(ctx, orgID)
}

// AvailableRows returns the claimable rows for a tag, oldest first, so
// claims drain the pool in creation order. myPoolEmail, when set, restricts
// candidates to rows this user signed up.
func (s *Store) AvailableRows(ctx context.Context, tag, myPoolEmail string) ([]Row, error) {
	soql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s' AND %s",
		rowFields, PoolObject, fieldTag, escape(tag), s.schema.AvailableCondition())
	if myPoolEmail != "" {
		soql += fmt.Sprintf(" AND %s = '%s'", fieldEmail, escape(myPoolEmail))
	}
	soql += " ORDER BY " + fieldCreated + " ASC"
	records, err := s.hub.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("querying available orgs: %w", err)
	}
	return s.rows(records), nil
}

// Claim attempts the Available -> Assigned transition on one row. Returns
// false when a racing claim got there first; the caller moves to the next
// candidate.
func (s *Store) Claim(ctx context.Context, row Row) (bool, error) {
	return s.hub.CompareAndSet(ctx, PoolObject, row.RecordID,
		map[string]any{fieldStatus: s.schema.WireValue(StatusAssigned)},
		fieldStatus, s.schema.WireValue(StatusAvailable))
}

// RowQuery filters Rows.
type RowQuery struct {
	// MyPoolEmail, when set, restricts rows to ones signed up by this user.
	MyPoolEmail string
	// InProgressOnly restricts to rows still provisioning.
	InProgressOnly bool
}

// Rows returns the pool rows for a tag under the given filter.
func (s *Store) Rows(ctx context.Context, tag string, q RowQuery) ([]Row, error) {
	soql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s'",
		rowFields, PoolObject, fieldTag, escape(tag))
	if q.MyPoolEmail != "" {
		soql += fmt.Sprintf(" AND %s = '%s'", fieldEmail, escape(q.MyPoolEmail))
	}
	soql += " ORDER BY " + fieldCreated + " ASC"

	records, err := s.hub.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("querying pool rows: %w", err)
	}

	rows := s.rows(records)
	if !q.InProgressOnly {
		return rows, nil
	}
	filtered := rows[:0]
	for _, r := range rows {
		if r.Status == StatusProvisioning {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

const rowFields = "Id, Pooltag__c, ScratchOrg, ExpirationDate, SignupUsername, SignupEmail, " +
	"Password__c, Allocation_status__c, LoginUrl, SfdxAuthUrl__c, CreatedDate"

func (s *Store) rows(records []devhub.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			RecordID:       rec.ID(),
			OrgID:          rec.Str(fieldOrgID),
			Tag:            rec.Str(fieldTag),
			Username:       rec.Str(fieldUsername),
			Email:          rec.Str(fieldEmail),
			Password:       rec.Str(fieldPassword),
			LoginURL:       rec.Str(fieldLoginURL),
			SfdxAuthURL:    rec.Str(fieldAuthURL),
			Status:         s.schema.StatusOf(rec),
			ExpirationDate: rec.Str(fieldExpiry),
			CreatedAt:      parseRemoteTime(rec.Str(fieldCreated)),
		})
	}
	return rows
}

// loginHost strips the scheme so the stored auth URL carries a bare host.
func loginHost(loginURL string) string {
	host := strings.TrimPrefix(loginURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}

func orgIDPrefix(orgID string) string {
	if len(orgID) > 15 {
		return orgID[:15]
	}
	return orgID
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`)
}

func parseRemoteTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
