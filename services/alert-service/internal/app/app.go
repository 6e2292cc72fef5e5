// Package app wires the alert engine from configuration. The HTTP service, the refresh
// worker and the CLI share it so they run the same engine against the same stores.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/documents"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/flightstatus"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/news"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/weather"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/aggregator"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/config"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/notifier"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/rules"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/store"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/trips"
)

// Metrics is what the engine reports to. *metrics.Collector satisfies it.
type Metrics interface {
	aggregator.MetricsRecorder
}

// App holds the wired engine.
type App struct {
	Store      store.Backend
	Rules      *rules.Set
	Aggregator *aggregator.Aggregator
	Notifier   *notifier.Notifier
	Trips      *trips.Service
	Documents  *documents.Adapter
	// Uploads is nil when no documents bucket is configured.
	Uploads *documents.S3Store

	closers []func() error
}

// Build connects the store, loads the rules and wires the adapters, evaluators and
// notification transports. m may be nil. The rules file, if any, is polled until ctx
// is done.
func Build(ctx context.Context, cfg config.Config, m Metrics) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var counter upstream.Counter = upstream.NoOpCounter
	var aggMetrics aggregator.MetricsRecorder = &aggregator.NoOpMetrics{}
	if m != nil {
		counter, aggMetrics = m, m
	}

	a := &App{}

	ruleSet, err := loadRules(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Rules = ruleSet

	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	backend, err := store.Open(ctx, store.Config{
		Backend:     cfg.StoreBackend,
		PostgresDSN: cfg.PostgresDSN,
		RedisAddr:   cfg.RedisAddr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	a.Store = backend
	a.closers = append(a.closers, backend.Close)

	opts := upstream.Options{Timeout: cfg.UpstreamTimeout, RatePerSecond: cfg.ProviderRatePerSec}
	src := synthetic.NewRand(cfg.SyntheticSeed)

	if awsCfg != nil && cfg.DocumentsBucket != "" {
		a.Uploads = documents.NewS3Store(s3.NewFromConfig(*awsCfg), cfg.DocumentsBucket, cfg.UpstreamTimeout)
	}
	var liveDocs documents.LiveSource
	if a.Uploads != nil {
		liveDocs = a.Uploads
	}
	a.Documents = documents.NewAdapter(liveDocs, counter)

	liveFlights, liveForecasts, liveNews := flightSource(cfg, opts), forecastSource(cfg, opts), newsSource(cfg, opts)
	flights := flightstatus.NewAdapter(liveFlights, flightstatus.NewSynthetic(src), counter)
	forecasts := weather.NewAdapter(liveForecasts, weather.NewSynthetic(src), counter)
	headlines := news.NewAdapter(liveNews, news.NewSynthetic(), counter)

	a.Aggregator = aggregator.NewAggregatorWithMetrics(backend, aggregator.Evaluators{
		Flight:    rules.NewFlightEvaluator(flights, ruleSet),
		Weather:   rules.NewWeatherEvaluator(forecasts, ruleSet),
		News:      rules.NewNewsEvaluator(headlines, ruleSet),
		Documents: rules.NewDocumentEvaluator(a.Documents, src, ruleSet),
	}, aggMetrics)

	fanout, closeTransports, err := buildTransports(cfg, awsCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeTransports...)
	a.Notifier = notifier.New(backend, fanout, counter)
	a.Trips = trips.NewService(backend)

	slog.Info("Alert engine ready",
		"store", cfg.StoreBackend,
		"transports", fanout.Names(),
		"flight_status", liveName(liveFlights != nil, "amadeus"),
		"weather", liveName(liveForecasts != nil, "live"),
		"news", liveName(liveNews != nil, "newsapi"),
		"documents", liveName(a.Uploads != nil, "s3"),
	)
	return a, nil
}

// Close releases the store and transport connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadRules(ctx context.Context, cfg config.Config) (*rules.Set, error) {
	if cfg.RulesFile == "" {
		return rules.NewSet(rules.Default()), nil
	}
	ruleCfg, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	set := rules.NewSet(ruleCfg)
	if err := rules.NewReloader(cfg.RulesFile, set, cfg.RulesPollInterval).Start(ctx); err != nil {
		return nil, err
	}
	return set, nil
}

func needsAWS(cfg config.Config) bool {
	if cfg.DocumentsBucket != "" {
		return true
	}
	for _, t := range cfg.Transports() {
		if t == config.TransportSNS || (t == config.TransportEmail && cfg.ResendAPIKey == "") {
			return true
		}
	}
	return false
}

// The constructors below return nil pointers when unconfigured; they are only stored in
// the interface when set.

func flightSource(cfg config.Config, opts upstream.Options) flightstatus.LiveSource {
	if a := flightstatus.NewAmadeus(flightstatus.AmadeusConfig{
		BaseURL:      cfg.AmadeusURL,
		ClientID:     cfg.AmadeusClientID,
		ClientSecret: cfg.AmadeusSecret,
		Options:      opts,
	}); a != nil {
		return a
	}
	return nil
}

// forecastSource prefers OpenWeatherMap and falls back to WeatherAPI.com.
func forecastSource(cfg config.Config, opts upstream.Options) weather.LiveSource {
	if owm := weather.NewOpenWeather("", cfg.OpenWeatherKey, opts); owm != nil {
		return owm
	}
	if wa := weather.NewWeatherAPI("", cfg.WeatherAPIKey, opts); wa != nil {
		return wa
	}
	return nil
}

func newsSource(cfg config.Config, opts upstream.Options) news.LiveSource {
	if n := news.NewNewsAPI("", cfg.NewsAPIKey, opts); n != nil {
		return n
	}
	return nil
}

func liveName(live bool, name string) string {
	if live {
		return name
	}
	return "synthetic"
}
