package timeseries

import "time"

// FederationSource selects which upstream system the service queries:
//   - SourceIMS queries the underlying plant IMS historian directly.
//   - SourceTSDB queries the hosted time series database, which tracks
//     the IMS with low latency.
//   - SourceDataLake queries the historic data lake, which lags TSDB by
//     roughly two days but may hold older data.
type FederationSource string

const (
	SourceIMS      FederationSource = "IMS"
	SourceTSDB     FederationSource = "TSDB"
	SourceDataLake FederationSource = "DataLake"
)

// AggregateFunction names a server-side aggregate computation.
type AggregateFunction string

const (
	AggregateAvg    AggregateFunction = "avg"
	AggregateMin    AggregateFunction = "min"
	AggregateMax    AggregateFunction = "max"
	AggregateSum    AggregateFunction = "sum"
	AggregateStddev AggregateFunction = "stddev"
	AggregateCount  AggregateFunction = "count"
	AggregateFirst  AggregateFunction = "first"
	AggregateLast   AggregateFunction = "last"
)

// TimeRange bounds a query in time. Both bounds are sent as RFC 3339
// timestamps and Start must not be after End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Datapoint is a single stored observation.
type Datapoint struct {
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
	Status int       `json:"status"`
}

// DatapointsItem groups the datapoints returned for one series.
type DatapointsItem struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	Datapoints []Datapoint `json:"datapoints"`
}

// DatapointsResult is the parsed payload of a datapoints query. For
// batched queries Items holds one entry per requested series, matched
// by ID.
type DatapointsResult struct {
	Items             []DatapointsItem
	ContinuationToken string
}

// AggregateDatapoint holds the computed values for one processing
// interval. Only the requested functions are populated; the rest stay
// nil.
type AggregateDatapoint struct {
	Time   time.Time `json:"time"`
	Avg    *float64  `json:"avg,omitempty"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
	Sum    *float64  `json:"sum,omitempty"`
	Stddev *float64  `json:"stddev,omitempty"`
	Count  *float64  `json:"count,omitempty"`
	First  *float64  `json:"first,omitempty"`
	Last   *float64  `json:"last,omitempty"`
}

// Value returns the computed value for fn and whether it was present.
func (d AggregateDatapoint) Value(fn AggregateFunction) (float64, bool) {
	var p *float64
	switch fn {
	case AggregateAvg:
		p = d.Avg
	case AggregateMin:
		p = d.Min
	case AggregateMax:
		p = d.Max
	case AggregateSum:
		p = d.Sum
	case AggregateStddev:
		p = d.Stddev
	case AggregateCount:
		p = d.Count
	case AggregateFirst:
		p = d.First
	case AggregateLast:
		p = d.Last
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// AggregatesItem groups the aggregate datapoints returned for one series.
type AggregatesItem struct {
	ID         string               `json:"id"`
	Datapoints []AggregateDatapoint `json:"datapoints"`
}

// AggregatesResult is the parsed payload of an aggregates query.
type AggregatesResult struct {
	Items             []AggregatesItem
	ContinuationToken string
}

// TimeseriesMeta describes one registered series.
type TimeseriesMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	AssetID     string    `json:"assetId,omitempty"`
	Facility    string    `json:"facility,omitempty"`
	ExternalID  string    `json:"externalId,omitempty"`
	Source      string    `json:"source,omitempty"`
	Step        bool      `json:"step,omitempty"`
	CreatedTime time.Time `json:"createdTime,omitempty"`
	ChangedTime time.Time `json:"changedTime,omitempty"`
}

// TimeseriesList is a page of series metadata.
type TimeseriesList struct {
	Items             []TimeseriesMeta
	ContinuationToken string
}

// TimeseriesRequest registers a new series.
type TimeseriesRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
	AssetID     string `json:"assetId,omitempty"`
	Facility    string `json:"facility,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
	Step        bool   `json:"step,omitempty"`
}

// HistoryEntry records one past revision of a series' metadata.
type HistoryEntry struct {
	ChangedTime time.Time `json:"changedTime"`
	ChangedBy   string    `json:"changedBy,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`
}

// MultiQueryItem is one series spec inside a batched datapoints or
// aggregates query. Each item carries its own id, time range and
// aggregate list.
type MultiQueryItem struct {
	ID                   string
	TimeRange            *TimeRange
	Aggregates           []AggregateFunction
	ProcessingInterval   string
	Fill                 string
	StatusFilter         []int
	IncludeOutsidePoints bool
	Limit                int
}

// WritePoint is a single observation to store.
type WritePoint struct {
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
	Status int       `json:"status,omitempty"`
}

// WriteItem addresses a batch of points at one series.
type WriteItem struct {
	ID         string       `json:"id"`
	Datapoints []WritePoint `json:"datapoints"`
}

// Facet is a single facet value with its series count.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// collectionEnvelope is the wire shape shared by all list responses.
type collectionEnvelope[T any] struct {
	Data struct {
		Items []T `json:"items"`
	} `json:"data"`
	ContinuationToken string `json:"continuationToken"`
}

// messageEnvelope is the wire shape of write and delete acknowledgements.
type messageEnvelope struct {
	Message string `json:"message"`
}

// errorEnvelope is the best-effort shape of service error payloads.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
