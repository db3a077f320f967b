// Command seriesctl queries the PlantSeries time series API from the
// command line.
//
// Usage:
//
//	seriesctl [flags] <command>
//
// The commands are:
//
//	timeseries   list series metadata
//	search       free-text metadata search (-query)
//	meta         fetch one series by id (-id)
//	history      metadata revision history (-id)
//	datapoints   raw datapoints (-id, -start, -end)
//	multi        batched datapoints across series (-id id1,id2,...)
//	latest       most recent datapoint (-id)
//	first        earliest datapoint (-id)
//	aggregates   server-side aggregates (-id, -aggregates, -interval)
//	write        store datapoints read from stdin as JSON (-id, -async)
//	facilities   list facility facets
//	sources      list source facets
//
// Credentials are read from the config file, the environment, or a
// .env file in the working directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/plantmetrics/plantseries/auth"
	"github.com/plantmetrics/plantseries/internal/config"
	"github.com/plantmetrics/plantseries/timeseries"
)

func main() {
	cfg := parseFlags()

	// Missing .env is fine; credentials may come from the environment.
	_ = godotenv.Load()

	appConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(appConfig.Logging)

	client, err := buildClient(appConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to build client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, client, cfg)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"command": cfg.Command,
		}).Fatalf("Command failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to render result: %v", err)
	}
	fmt.Println(string(out))
}

type cliConfig struct {
	ConfigPath string
	Command    string

	ID         string
	Name       string
	Facility   string
	Query      string
	Start      string
	End        string
	Aggregates string
	Interval   string
	Fill       string
	Status     string
	Limit      int
	Federation string
	Async      bool
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&cfg.ID, "id", "", "series id")
	flag.StringVar(&cfg.Name, "name", "", "series name (datapoints lookup by name)")
	flag.StringVar(&cfg.Facility, "facility", "", "facility filter")
	flag.StringVar(&cfg.Query, "query", "", "free-text search query")
	flag.StringVar(&cfg.Start, "start", "", "range start, RFC 3339")
	flag.StringVar(&cfg.End, "end", "", "range end, RFC 3339")
	flag.StringVar(&cfg.Aggregates, "aggregates", "avg", "comma-separated aggregate functions")
	flag.StringVar(&cfg.Interval, "interval", "", "processing interval, ISO 8601 duration")
	flag.StringVar(&cfg.Fill, "fill", "", "fill policy for empty buckets")
	flag.StringVar(&cfg.Status, "status", "", "comma-separated status filter codes")
	flag.IntVar(&cfg.Limit, "limit", 0, "maximum items per page")
	flag.StringVar(&cfg.Federation, "federation", "", "federation source (IMS, TSDB, DataLake)")
	flag.BoolVar(&cfg.Async, "async", false, "acknowledge writes before they are durable")

	flag.Parse()
	cfg.Command = flag.Arg(0)
	return cfg
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func buildClient(appConfig *config.Config, logger *logrus.Logger) (*timeseries.Client, error) {
	env, err := resolveEnvironment(appConfig.API)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewClientCredentials(auth.Config{
		TokenURL:     appConfig.Auth.TokenURL,
		ClientID:     appConfig.Auth.ClientID,
		ClientSecret: appConfig.Auth.ClientSecret,
		Resource:     env.Resource(),
	})

	opts := []timeseries.Option{
		timeseries.WithHTTPClient(newHTTPClient(appConfig.Client)),
		timeseries.WithLogger(logger),
		timeseries.WithMetrics(prometheus.DefaultRegisterer),
		timeseries.WithRetryPolicy(
			appConfig.Client.MaxAttempts,
			time.Duration(appConfig.Client.BackoffBaseMS)*time.Millisecond,
		),
	}
	if appConfig.Client.RateLimit > 0 {
		opts = append(opts, timeseries.WithRateLimit(appConfig.Client.RateLimit, appConfig.Client.RateLimitBurst))
	}
	if appConfig.Client.CacheSize > 0 {
		opts = append(opts, timeseries.WithMetadataCache(appConfig.Client.CacheSize))
	}

	return timeseries.NewClient(env, tokens, opts...)
}

func newHTTPClient(cfg config.ClientConfig) *http.Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func resolveEnvironment(cfg config.APIConfig) (timeseries.Environment, error) {
	version := timeseries.Version(cfg.Version)
	if version == "" {
		version = timeseries.DefaultVersion
	}
	if cfg.BaseURL != "" {
		return timeseries.NewEnvironment("custom", cfg.BaseURL, cfg.Resource), nil
	}
	switch cfg.Environment {
	case "dev":
		return timeseries.Dev(version), nil
	case "test":
		return timeseries.Test(version), nil
	case "prod":
		return timeseries.Prod(version), nil
	default:
		return timeseries.Environment{}, fmt.Errorf("unknown environment %q", cfg.Environment)
	}
}

func run(ctx context.Context, client *timeseries.Client, cfg *cliConfig) (any, error) {
	switch cfg.Command {
	case "timeseries":
		return client.GetTimeseries(ctx, &timeseries.TimeseriesFilter{
			Name:     cfg.Name,
			Facility: cfg.Facility,
			Limit:    cfg.Limit,
		})
	case "search":
		return client.SearchTimeseries(ctx, cfg.Query, &timeseries.TimeseriesFilter{
			Facility: cfg.Facility,
			Limit:    cfg.Limit,
		})
	case "meta":
		return client.GetTimeseriesByID(ctx, cfg.ID)
	case "history":
		return client.GetHistory(ctx, cfg.ID)
	case "datapoints":
		query, err := datapointsQuery(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Name != "" {
			return client.GetDatapointsByName(ctx, cfg.Name, cfg.Facility, query)
		}
		return client.GetDatapoints(ctx, cfg.ID, query)
	case "multi":
		items, err := multiItems(cfg)
		if err != nil {
			return nil, err
		}
		return client.GetMultiDatapoints(ctx, items, &timeseries.MultiQueryOptions{
			Federation: timeseries.FederationSource(cfg.Federation),
		})
	case "latest":
		return client.GetLatestDatapoint(ctx, cfg.ID, &timeseries.PointQuery{
			Federation: timeseries.FederationSource(cfg.Federation),
		})
	case "first":
		return client.GetFirstDatapoint(ctx, cfg.ID, &timeseries.PointQuery{
			Federation: timeseries.FederationSource(cfg.Federation),
		})
	case "aggregates":
		query, err := aggregateQuery(cfg)
		if err != nil {
			return nil, err
		}
		return client.GetAggregates(ctx, cfg.ID, query)
	case "write":
		points, err := readPoints(os.Stdin)
		if err != nil {
			return nil, err
		}
		if err := client.WriteDatapoints(ctx, cfg.ID, points, cfg.Async); err != nil {
			return nil, err
		}
		return map[string]int{"written": len(points)}, nil
	case "facilities":
		return client.GetFacilities(ctx)
	case "sources":
		return client.GetSources(ctx)
	case "":
		return nil, fmt.Errorf("missing command; see -h for usage")
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func datapointsQuery(cfg *cliConfig) (*timeseries.DatapointsQuery, error) {
	timeRange, err := parseTimeRange(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(cfg.Status)
	if err != nil {
		return nil, err
	}
	return &timeseries.DatapointsQuery{
		TimeRange:    timeRange,
		StatusFilter: status,
		Limit:        cfg.Limit,
		Federation:   timeseries.FederationSource(cfg.Federation),
	}, nil
}

func aggregateQuery(cfg *cliConfig) (*timeseries.AggregateQuery, error) {
	timeRange, err := parseTimeRange(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(cfg.Status)
	if err != nil {
		return nil, err
	}
	var functions []timeseries.AggregateFunction
	for _, name := range strings.Split(cfg.Aggregates, ",") {
		if name = strings.TrimSpace(name); name != "" {
			functions = append(functions, timeseries.AggregateFunction(name))
		}
	}
	return &timeseries.AggregateQuery{
		Functions:          functions,
		TimeRange:          timeRange,
		ProcessingInterval: cfg.Interval,
		Fill:               cfg.Fill,
		StatusFilter:       status,
		Limit:              cfg.Limit,
		Federation:         timeseries.FederationSource(cfg.Federation),
	}, nil
}

// multiItems builds one series spec per id in the comma-separated -id
// list, all sharing the command's range and filters.
func multiItems(cfg *cliConfig) ([]timeseries.MultiQueryItem, error) {
	timeRange, err := parseTimeRange(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(cfg.Status)
	if err != nil {
		return nil, err
	}
	var items []timeseries.MultiQueryItem
	for _, id := range strings.Split(cfg.ID, ",") {
		if id = strings.TrimSpace(id); id != "" {
			items = append(items, timeseries.MultiQueryItem{
				ID:           id,
				TimeRange:    timeRange,
				StatusFilter: status,
				Limit:        cfg.Limit,
			})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("missing -id; pass a comma-separated list of series ids")
	}
	return items, nil
}

// readPoints decodes a JSON array of datapoints, e.g.
// [{"time":"2026-01-01T00:00:00Z","value":1.5,"status":192}].
func readPoints(r io.Reader) ([]timeseries.WritePoint, error) {
	var points []timeseries.WritePoint
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		return nil, fmt.Errorf("reading datapoints: %w", err)
	}
	return points, nil
}

func parseTimeRange(start, end string) (*timeseries.TimeRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	timeRange := &timeseries.TimeRange{}
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("invalid -start: %w", err)
		}
		timeRange.Start = t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, fmt.Errorf("invalid -end: %w", err)
		}
		timeRange.End = t
	}
	return timeRange, nil
}

func parseStatus(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var status []int
	for _, field := range strings.Split(raw, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid -status value %q", field)
		}
		status = append(status, code)
	}
	return status, nil
}
