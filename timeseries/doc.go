// Package timeseries is a client for the PlantSeries industrial time
// series API.
//
// # Architecture
//
// The client is a thin request/response mapping layer over the hosted
// REST API:
//   - Request building: typed query and body parameters are translated
//     into URL paths, query strings and JSON bodies
//   - Transport: authenticated HTTP with bounded exponential backoff on
//     transient failures (429 and 5xx)
//   - Response parsing: JSON envelopes are decoded into typed results,
//     with typed errors on shape mismatches
//
// Authentication is delegated to an injected auth.TokenSource, which is
// consulted before every outbound request. Both the HTTP client and the
// token source can be replaced with test doubles.
//
// Example usage:
//
//	tokens := auth.NewClientCredentials(auth.Config{
//	    TokenURL:     os.Getenv("PLANTSERIES_TOKEN_URL"),
//	    ClientID:     os.Getenv("PLANTSERIES_CLIENT_ID"),
//	    ClientSecret: os.Getenv("PLANTSERIES_CLIENT_SECRET"),
//	    Resource:     timeseries.Prod(timeseries.DefaultVersion).Resource(),
//	})
//
//	client, err := timeseries.NewClient(timeseries.Prod(timeseries.DefaultVersion), tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	points, err := client.GetDatapoints(ctx, "series-id", &timeseries.DatapointsQuery{
//	    TimeRange: &timeseries.TimeRange{Start: start, End: end},
//	})
//
// The client performs no local caching of datapoints and computes no
// aggregates locally; aggregation semantics are server side.
package timeseries
