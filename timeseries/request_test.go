package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		timeRange *TimeRange
		wantErr   bool
	}{
		{
			name:      "nil range",
			timeRange: nil,
		},
		{
			name:      "ordered range",
			timeRange: &TimeRange{Start: now, End: now.Add(time.Hour)},
		},
		{
			name:      "equal bounds",
			timeRange: &TimeRange{Start: now, End: now},
		},
		{
			name:      "open start",
			timeRange: &TimeRange{End: now},
		},
		{
			name:      "open end",
			timeRange: &TimeRange{Start: now},
		},
		{
			name:      "inverted range",
			timeRange: &TimeRange{Start: now.Add(time.Hour), End: now},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.timeRange.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeRangeApplyKeepsOrdering(t *testing.T) {
	ranges := []TimeRange{
		{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Start: time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC), End: time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)},
		{Start: time.Date(2020, 2, 29, 23, 59, 59, 999999999, time.UTC), End: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, r := range ranges {
		r := r
		require.NoError(t, r.Validate())

		q, err := (&DatapointsQuery{TimeRange: &r}).values()
		require.NoError(t, err)

		start, err := time.Parse(time.RFC3339Nano, q.Get("startTime"))
		require.NoError(t, err)
		end, err := time.Parse(time.RFC3339Nano, q.Get("endTime"))
		require.NoError(t, err)
		assert.False(t, start.After(end), "emitted query must keep start <= end")
	}
}

func TestDatapointsQueryValues(t *testing.T) {
	q := &DatapointsQuery{
		StatusFilter:         []int{192, 64},
		IncludeOutsidePoints: true,
		Limit:                500,
		ContinuationToken:    "tok",
		Federation:           SourceIMS,
	}

	v, err := q.values()
	require.NoError(t, err)
	assert.Equal(t, []string{"192", "64"}, v["status"])
	assert.Equal(t, "true", v.Get("includeOutsidePoints"))
	assert.Equal(t, "500", v.Get("limit"))
	assert.Equal(t, "tok", v.Get("continuationToken"))
	assert.Equal(t, "IMS", v.Get("federationSource"))
}

func TestDatapointsQueryNilIsEmpty(t *testing.T) {
	var q *DatapointsQuery
	v, err := q.values()
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestAggregateQueryValues(t *testing.T) {
	tests := []struct {
		name    string
		query   *AggregateQuery
		wantErr string
	}{
		{
			name:    "nil query",
			query:   nil,
			wantErr: "at least one aggregate function",
		},
		{
			name:    "no functions",
			query:   &AggregateQuery{},
			wantErr: "at least one aggregate function",
		},
		{
			name: "bad interval",
			query: &AggregateQuery{
				Functions:          []AggregateFunction{AggregateAvg},
				ProcessingInterval: "15m",
			},
			wantErr: "invalid processing interval",
		},
		{
			name: "inverted range",
			query: &AggregateQuery{
				Functions: []AggregateFunction{AggregateAvg},
				TimeRange: &TimeRange{Start: time.Now().Add(time.Hour), End: time.Now()},
			},
			wantErr: "start time must be before end time",
		},
		{
			name: "complete query",
			query: &AggregateQuery{
				Functions:          []AggregateFunction{AggregateAvg, AggregateMax},
				ProcessingInterval: "PT15M",
				Fill:               "none",
				StatusFilter:       []int{192},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.query.values()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"avg", "max"}, v["aggregateFunction"])
			assert.Equal(t, "PT15M", v.Get("processingInterval"))
			assert.Equal(t, "none", v.Get("fill"))
			assert.Equal(t, []string{"192"}, v["status"])
		})
	}
}

func TestValidateProcessingInterval(t *testing.T) {
	assert.NoError(t, validateProcessingInterval(""))
	assert.NoError(t, validateProcessingInterval("PT1M"))
	assert.NoError(t, validateProcessingInterval("PT15S"))
	assert.NoError(t, validateProcessingInterval("P1D"))
	assert.Error(t, validateProcessingInterval("1m"))
	assert.Error(t, validateProcessingInterval("fifteen minutes"))
}

func TestBuildMultiQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("empty batch", func(t *testing.T) {
		_, err := buildMultiQuery(nil)
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := buildMultiQuery([]MultiQueryItem{{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing id")
	})

	t.Run("inverted range names the spec", func(t *testing.T) {
		_, err := buildMultiQuery([]MultiQueryItem{
			{ID: "ok", TimeRange: &TimeRange{Start: start, End: end}},
			{ID: "bad", TimeRange: &TimeRange{Start: end, End: start}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "series spec 1")
	})

	t.Run("each spec keeps its own parameters", func(t *testing.T) {
		wire, err := buildMultiQuery([]MultiQueryItem{
			{
				ID:        "series-a",
				TimeRange: &TimeRange{Start: start, End: end},
			},
			{
				ID:                 "series-b",
				TimeRange:          &TimeRange{Start: start.Add(-time.Hour), End: end.Add(time.Hour)},
				Aggregates:         []AggregateFunction{AggregateAvg, AggregateCount},
				ProcessingInterval: "PT5M",
				Fill:               "previous",
				StatusFilter:       []int{192},
				Limit:              100,
			},
		})
		require.NoError(t, err)
		require.Len(t, wire, 2)

		assert.Equal(t, "series-a", wire[0].ID)
		assert.Empty(t, wire[0].AggregateFunction)
		assert.Equal(t, "2026-01-01T00:00:00Z", wire[0].StartTime)

		assert.Equal(t, "series-b", wire[1].ID)
		assert.Equal(t, []AggregateFunction{AggregateAvg, AggregateCount}, wire[1].AggregateFunction)
		assert.Equal(t, "PT5M", wire[1].ProcessingInterval)
		assert.Equal(t, "previous", wire[1].Fill)
		assert.Equal(t, []int{192}, wire[1].Status)
		assert.Equal(t, 100, wire[1].Limit)
	})
}

func TestTimeseriesFilterValues(t *testing.T) {
	f := &TimeseriesFilter{
		Name:     "PI-101",
		Facility: "KAR",
		Limit:    10,
	}
	v := f.values()
	assert.Equal(t, "PI-101", v.Get("name"))
	assert.Equal(t, "KAR", v.Get("facility"))
	assert.Equal(t, "10", v.Get("limit"))
	assert.NotContains(t, v, "source", "zero fields must be omitted")

	var nilFilter *TimeseriesFilter
	assert.Empty(t, nilFilter.values())
}
