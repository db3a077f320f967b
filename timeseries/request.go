package timeseries

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sosodev/duration"
)

// Validate checks the range locally before a request is built. A zero
// bound is allowed and means the query is open on that side.
func (r *TimeRange) Validate() error {
	if r == nil {
		return nil
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return errors.New("start time must be before end time")
	}
	return nil
}

func (r *TimeRange) apply(v url.Values) {
	if r == nil {
		return
	}
	if !r.Start.IsZero() {
		v.Set("startTime", r.Start.UTC().Format(time.RFC3339Nano))
	}
	if !r.End.IsZero() {
		v.Set("endTime", r.End.UTC().Format(time.RFC3339Nano))
	}
}

// validateProcessingInterval checks that s is an ISO 8601 duration, e.g.
// "PT1M" or "PT15S". An empty interval is allowed and leaves bucketing
// to the service default.
func validateProcessingInterval(s string) error {
	if s == "" {
		return nil
	}
	if _, err := duration.Parse(s); err != nil {
		return fmt.Errorf("invalid processing interval %q: %w", s, err)
	}
	return nil
}

func applyStatus(v url.Values, status []int) {
	for _, s := range status {
		v.Add("status", strconv.Itoa(s))
	}
}

func applyFederation(v url.Values, source FederationSource) {
	if source != "" {
		v.Set("federationSource", string(source))
	}
}

func applyLimit(v url.Values, limit int) {
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

func applyContinuation(v url.Values, token string) {
	if token != "" {
		v.Set("continuationToken", token)
	}
}

// TimeseriesFilter narrows a metadata listing or search. Zero fields are
// omitted from the outgoing query.
type TimeseriesFilter struct {
	Name              string
	ExternalID        string
	Source            string
	AssetID           string
	Facility          string
	Description       string
	Unit              string
	Limit             int
	ContinuationToken string
}

func (f *TimeseriesFilter) values() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("name", f.Name)
	set("externalId", f.ExternalID)
	set("source", f.Source)
	set("assetId", f.AssetID)
	set("facility", f.Facility)
	set("description", f.Description)
	set("unit", f.Unit)
	applyLimit(v, f.Limit)
	applyContinuation(v, f.ContinuationToken)
	return v
}

// DatapointsQuery bounds a raw datapoints read.
type DatapointsQuery struct {
	TimeRange            *TimeRange
	StatusFilter         []int
	IncludeOutsidePoints bool
	Limit                int
	ContinuationToken    string
	Federation           FederationSource
}

func (q *DatapointsQuery) values() (url.Values, error) {
	v := url.Values{}
	if q == nil {
		return v, nil
	}
	if err := q.TimeRange.Validate(); err != nil {
		return nil, err
	}
	q.TimeRange.apply(v)
	applyStatus(v, q.StatusFilter)
	if q.IncludeOutsidePoints {
		v.Set("includeOutsidePoints", "true")
	}
	applyLimit(v, q.Limit)
	applyContinuation(v, q.ContinuationToken)
	applyFederation(v, q.Federation)
	return v, nil
}

// PointQuery bounds a first/latest datapoint lookup.
type PointQuery struct {
	AfterTime    time.Time
	BeforeTime   time.Time
	StatusFilter []int
	Federation   FederationSource
}

func (q *PointQuery) values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if !q.AfterTime.IsZero() {
		v.Set("afterTime", q.AfterTime.UTC().Format(time.RFC3339Nano))
	}
	if !q.BeforeTime.IsZero() {
		v.Set("beforeTime", q.BeforeTime.UTC().Format(time.RFC3339Nano))
	}
	applyStatus(v, q.StatusFilter)
	applyFederation(v, q.Federation)
	return v
}

// AggregateQuery describes a server-side aggregate computation over one
// series.
type AggregateQuery struct {
	Functions          []AggregateFunction
	TimeRange          *TimeRange
	ProcessingInterval string // ISO 8601 duration, bucket width
	Fill               string // fill policy for empty buckets, passed through verbatim
	StatusFilter       []int
	Limit              int
	ContinuationToken  string
	Federation         FederationSource
}

func (q *AggregateQuery) values() (url.Values, error) {
	if q == nil || len(q.Functions) == 0 {
		return nil, errors.New("at least one aggregate function is required")
	}
	if err := q.TimeRange.Validate(); err != nil {
		return nil, err
	}
	if err := validateProcessingInterval(q.ProcessingInterval); err != nil {
		return nil, err
	}
	v := url.Values{}
	for _, fn := range q.Functions {
		v.Add("aggregateFunction", string(fn))
	}
	q.TimeRange.apply(v)
	if q.ProcessingInterval != "" {
		v.Set("processingInterval", q.ProcessingInterval)
	}
	if q.Fill != "" {
		v.Set("fill", q.Fill)
	}
	applyStatus(v, q.StatusFilter)
	applyLimit(v, q.Limit)
	applyContinuation(v, q.ContinuationToken)
	applyFederation(v, q.Federation)
	return v, nil
}

// multiQueryWire is the JSON body shape of one batched series spec.
type multiQueryWire struct {
	ID                   string              `json:"id"`
	StartTime            string              `json:"startTime,omitempty"`
	EndTime              string              `json:"endTime,omitempty"`
	AggregateFunction    []AggregateFunction `json:"aggregateFunction,omitempty"`
	ProcessingInterval   string              `json:"processingInterval,omitempty"`
	Fill                 string              `json:"fill,omitempty"`
	Status               []int               `json:"status,omitempty"`
	IncludeOutsidePoints bool                `json:"includeOutsidePoints,omitempty"`
	Limit                int                 `json:"limit,omitempty"`
}

// buildMultiQuery validates and flattens batched series specs into their
// wire form. All specs travel in a single request body.
func buildMultiQuery(items []MultiQueryItem) ([]multiQueryWire, error) {
	if len(items) == 0 {
		return nil, errors.New("at least one series spec is required")
	}
	wire := make([]multiQueryWire, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("series spec %d: missing id", i)
		}
		if err := item.TimeRange.Validate(); err != nil {
			return nil, fmt.Errorf("series spec %d: %w", i, err)
		}
		if err := validateProcessingInterval(item.ProcessingInterval); err != nil {
			return nil, fmt.Errorf("series spec %d: %w", i, err)
		}
		w := multiQueryWire{
			ID:                   item.ID,
			AggregateFunction:    item.Aggregates,
			ProcessingInterval:   item.ProcessingInterval,
			Fill:                 item.Fill,
			Status:               item.StatusFilter,
			IncludeOutsidePoints: item.IncludeOutsidePoints,
			Limit:                item.Limit,
		}
		if item.TimeRange != nil {
			if !item.TimeRange.Start.IsZero() {
				w.StartTime = item.TimeRange.Start.UTC().Format(time.RFC3339Nano)
			}
			if !item.TimeRange.End.IsZero() {
				w.EndTime = item.TimeRange.End.UTC().Format(time.RFC3339Nano)
			}
		}
		wire[i] = w
	}
	return wire, nil
}
