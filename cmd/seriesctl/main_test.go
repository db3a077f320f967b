package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmetrics/plantseries/internal/config"
)

func TestNewHTTPClientAppliesConfiguredTimeout(t *testing.T) {
	client := newHTTPClient(config.ClientConfig{TimeoutSeconds: 10})
	assert.Equal(t, 10*time.Second, client.Timeout)
}

func TestNewHTTPClientDefaultsTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, newHTTPClient(config.ClientConfig{}).Timeout)
	assert.Equal(t, 30*time.Second, newHTTPClient(config.ClientConfig{TimeoutSeconds: -1}).Timeout)
}

func TestMultiItems(t *testing.T) {
	cfg := &cliConfig{
		ID:     "series-a, series-b",
		Start:  "2026-01-01T00:00:00Z",
		End:    "2026-01-02T00:00:00Z",
		Status: "192",
		Limit:  100,
	}

	items, err := multiItems(cfg)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "series-a", items[0].ID)
	assert.Equal(t, "series-b", items[1].ID)
	require.NotNil(t, items[0].TimeRange)
	assert.Equal(t, []int{192}, items[0].StatusFilter)
	assert.Equal(t, 100, items[0].Limit)
}

func TestMultiItemsRequiresIDs(t *testing.T) {
	_, err := multiItems(&cliConfig{})
	assert.Error(t, err)

	_, err = multiItems(&cliConfig{ID: " , "})
	assert.Error(t, err)
}

func TestReadPoints(t *testing.T) {
	points, err := readPoints(strings.NewReader(`[
		{"time":"2026-01-01T00:00:00Z","value":1.5,"status":192},
		{"time":"2026-01-01T00:01:00Z","value":2.5}
	]`))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 1.5, points[0].Value)
	assert.Equal(t, 192, points[0].Status)

	_, err = readPoints(strings.NewReader("not json"))
	assert.Error(t, err)
}
