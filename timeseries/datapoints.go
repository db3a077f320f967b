package timeseries

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// MultiQueryOptions applies to a whole batched query, on top of the
// per-series specs.
type MultiQueryOptions struct {
	ContinuationToken string
	Federation        FederationSource
}

func (o *MultiQueryOptions) values() url.Values {
	v := url.Values{}
	if o == nil {
		return v
	}
	applyContinuation(v, o.ContinuationToken)
	applyFederation(v, o.Federation)
	return v
}

// GetDatapoints reads raw datapoints from one series.
func (c *Client) GetDatapoints(ctx context.Context, id string, query *DatapointsQuery) (*DatapointsResult, error) {
	const op = "GetDatapoints"
	if id == "" {
		return nil, errInvalidInput(op, errors.New("missing series id"))
	}
	params, err := query.values()
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	return c.fetchDatapoints(ctx, op, http.MethodGet, "/"+url.PathEscape(id)+"/data", params, nil)
}

// GetDatapointsByName reads raw datapoints from the series identified by
// name within a facility.
func (c *Client) GetDatapointsByName(ctx context.Context, name, facility string, query *DatapointsQuery) (*DatapointsResult, error) {
	const op = "GetDatapointsByName"
	if name == "" || facility == "" {
		return nil, errInvalidInput(op, errors.New("missing series name or facility"))
	}
	params, err := query.values()
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	params.Set("name", name)
	params.Set("facility", facility)
	return c.fetchDatapoints(ctx, op, http.MethodGet, "/query/data", params, nil)
}

// GetMultiDatapoints reads datapoints from several series in a single
// batched request. The result carries one item per requested series,
// matched by id.
func (c *Client) GetMultiDatapoints(ctx context.Context, items []MultiQueryItem, opts *MultiQueryOptions) (*DatapointsResult, error) {
	const op = "GetMultiDatapoints"
	body, err := buildMultiQuery(items)
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	return c.fetchDatapoints(ctx, op, http.MethodPost, "/query/data", opts.values(), body)
}

// GetFirstDatapoint returns the earliest datapoint of a series within
// the query bounds. ErrNoDatapoints is returned when the series holds
// nothing in range.
func (c *Client) GetFirstDatapoint(ctx context.Context, id string, query *PointQuery) (*Datapoint, error) {
	return c.fetchSinglePoint(ctx, "GetFirstDatapoint", id, "/data/first", query)
}

// GetLatestDatapoint returns the most recent datapoint of a series
// within the query bounds. ErrNoDatapoints is returned when the series
// holds nothing in range.
func (c *Client) GetLatestDatapoint(ctx context.Context, id string, query *PointQuery) (*Datapoint, error) {
	return c.fetchSinglePoint(ctx, "GetLatestDatapoint", id, "/data/latest", query)
}

// GetFirstMultiDatapoints returns the earliest datapoint of each series
// in one batched request.
func (c *Client) GetFirstMultiDatapoints(ctx context.Context, items []MultiQueryItem, federation FederationSource) (*DatapointsResult, error) {
	const op = "GetFirstMultiDatapoints"
	body, err := buildMultiQuery(items)
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	params := url.Values{}
	applyFederation(params, federation)
	return c.fetchDatapoints(ctx, op, http.MethodPost, "/query/data/first", params, body)
}

// GetLatestMultiDatapoints returns the most recent datapoint of each
// series in one batched request.
func (c *Client) GetLatestMultiDatapoints(ctx context.Context, items []MultiQueryItem, federation FederationSource) (*DatapointsResult, error) {
	const op = "GetLatestMultiDatapoints"
	body, err := buildMultiQuery(items)
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	params := url.Values{}
	applyFederation(params, federation)
	return c.fetchDatapoints(ctx, op, http.MethodPost, "/query/data/latest", params, body)
}

// GetAggregates computes aggregates over one series server-side, one
// value set per processing interval.
func (c *Client) GetAggregates(ctx context.Context, id string, query *AggregateQuery) (*AggregatesResult, error) {
	const op = "GetAggregates"
	if id == "" {
		return nil, errInvalidInput(op, errors.New("missing series id"))
	}
	params, err := query.values()
	if err != nil {
		return nil, errInvalidInput(op, err)
	}
	var envelope collectionEnvelope[AggregatesItem]
	if err := c.do(ctx, op, http.MethodGet, "/"+url.PathEscape(id)+"/data/aggregates", params, nil, &envelope); err != nil {
		return nil, err
	}
	return &AggregatesResult{
		Items:             envelope.Data.Items,
		ContinuationToken: envelope.ContinuationToken,
	}, nil
}

// WriteDatapoints stores points on one series. With async the service
// acknowledges before the write is durable.
func (c *Client) WriteDatapoints(ctx context.Context, id string, points []WritePoint, async bool) error {
	const op = "WriteDatapoints"
	if id == "" {
		return errInvalidInput(op, errors.New("missing series id"))
	}
	if len(points) == 0 {
		return errInvalidInput(op, errors.New("no datapoints to write"))
	}
	body := struct {
		Datapoints []WritePoint `json:"datapoints"`
	}{Datapoints: points}
	var ack messageEnvelope
	return c.do(ctx, op, http.MethodPost, "/"+url.PathEscape(id)+"/data", asyncValues(async), body, &ack)
}

// WriteMultiDatapoints stores points on several series in a single
// batched request.
func (c *Client) WriteMultiDatapoints(ctx context.Context, items []WriteItem, async bool) error {
	const op = "WriteMultiDatapoints"
	if len(items) == 0 {
		return errInvalidInput(op, errors.New("no items to write"))
	}
	for _, item := range items {
		if item.ID == "" {
			return errInvalidInput(op, errors.New("write item missing series id"))
		}
	}
	body := struct {
		Items []WriteItem `json:"items"`
	}{Items: items}
	var ack messageEnvelope
	return c.do(ctx, op, http.MethodPost, "/data", asyncValues(async), body, &ack)
}

// DeleteDatapoints removes the datapoints of a series inside the given
// range. A nil range removes everything.
func (c *Client) DeleteDatapoints(ctx context.Context, id string, timeRange *TimeRange) error {
	const op = "DeleteDatapoints"
	if id == "" {
		return errInvalidInput(op, errors.New("missing series id"))
	}
	if err := timeRange.Validate(); err != nil {
		return errInvalidInput(op, err)
	}
	params := url.Values{}
	timeRange.apply(params)
	var ack messageEnvelope
	return c.do(ctx, op, http.MethodDelete, "/"+url.PathEscape(id)+"/data", params, nil, &ack)
}

func asyncValues(async bool) url.Values {
	v := url.Values{}
	if async {
		v.Set("async", "true")
	}
	return v
}

func (c *Client) fetchDatapoints(ctx context.Context, op, method, path string, params url.Values, body any) (*DatapointsResult, error) {
	var envelope collectionEnvelope[DatapointsItem]
	if err := c.do(ctx, op, method, path, params, body, &envelope); err != nil {
		return nil, err
	}
	return &DatapointsResult{
		Items:             envelope.Data.Items,
		ContinuationToken: envelope.ContinuationToken,
	}, nil
}

func (c *Client) fetchSinglePoint(ctx context.Context, op, id, suffix string, query *PointQuery) (*Datapoint, error) {
	if id == "" {
		return nil, errInvalidInput(op, errors.New("missing series id"))
	}
	result, err := c.fetchDatapoints(ctx, op, http.MethodGet, "/"+url.PathEscape(id)+suffix, query.values(), nil)
	if err != nil {
		return nil, err
	}
	for _, item := range result.Items {
		if len(item.Datapoints) > 0 {
			return &item.Datapoints[0], nil
		}
	}
	return nil, ErrNoDatapoints
}
