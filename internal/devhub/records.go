package devhub

import (
	"context"
	"errors"
	"net/http"
)

// Query runs a SOQL query against the object-query service.
func (c *Client) Query(ctx context.Context, soql string) ([]Record, error) {
	var resp queryResponse
	if err := c.doJSON(ctx, http.MethodGet, dataPath("query")+"?q="+queryEscape(soql), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// UpdateRecord patches fields on one row.
func (c *Client) UpdateRecord(ctx context.Context, object, id string, fields map[string]any) error {
	return c.doJSON(ctx, http.MethodPatch, dataPath("sobjects", object, id), fields, nil)
}

// CompareAndSet patches fields only when ifField still holds ifValue on the
// server. Returns false, nil when the precondition failed because another
// writer got there first.
func (c *Client) CompareAndSet(ctx context.Context, object, id string, fields map[string]any, ifField string, ifValue any) (bool, error) {
	body := map[string]any{
		"fields": fields,
		"if":     map[string]any{ifField: ifValue},
	}
	err := c.doJSON(ctx, http.MethodPatch, dataPath("sobjects", object, id)+"?conditional=true", body, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Code == http.StatusPreconditionFailed {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DescribeFieldValues returns the active picklist values of a field, or an
// empty slice when the field does not exist on this schema version.
func (c *Client) DescribeFieldValues(ctx context.Context, object, field string) ([]string, error) {
	var resp describeResponse
	if err := c.doJSON(ctx, http.MethodGet, dataPath("sobjects", object, "describe"), nil, &resp); err != nil {
		return nil, err
	}
	for _, f := range resp.Fields {
		if f.Name != field {
			continue
		}
		var values []string
		for _, pv := range f.PicklistValues {
			if pv.Active {
				values = append(values, pv.Value)
			}
		}
		return values, nil
	}
	return nil, nil
}

