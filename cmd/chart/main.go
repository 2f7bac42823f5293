package main

import (
	"context"
	"errors"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/tidemap/internal/api"
	"github.com/bbernstein/tidemap/internal/chart"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/bbernstein/tidemap/internal/config"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/tide"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/rs/zerolog/log"
	"net/http"
	"sync"
	"time"
)

// chartService answers one-shot chart requests without a session
type chartService struct {
	fetcher  tide.Fetcher
	resolver *geocode.Resolver
	clock    clock.Clock
}

var (
	service   *chartService
	missing   []string
	setupOnce sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read configuration")
		}
		cfg.InitializeLogging()

		var missingErr *config.MissingError
		if err := cfg.Validate(); errors.As(err, &missingErr) {
			log.Warn().Err(err).Msg("Chart requests will report missing configuration")
			missing = missingErr.Keys
			return
		}

		service = newChartService(cfg, config.GetCacheConfig())
	})
}

func newChartService(cfg *config.Config, cacheCfg *config.CacheConfig) *chartService {
	apiClient := client.New(client.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
	})
	mapsClient := client.New(client.Options{
		BaseURL: cfg.MapsBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	clk := clock.New()
	cache := geocode.NewCache(cacheCfg.GeocodeCacheSize, cacheCfg.GetGeocodeCacheTTL(), clk)

	return &chartService{
		fetcher:  tide.NewClient(apiClient),
		resolver: geocode.NewResolver(cache, geocode.NewGoogleProvider(mapsClient, cfg.MapsAPIKey)),
		clock:    clk,
	}
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if service == nil {
		return configurationNotice()
	}

	params := request.QueryStringParameters
	log.Info().Interface("params", params).Msg("Handling chart request")

	position, err := api.ParsePosition(params)
	if err != nil {
		var invalidCoordErr api.InvalidCoordinatesError
		if errors.As(err, &invalidCoordErr) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		return api.Error("Invalid parameters", http.StatusBadRequest)
	}

	date, err := api.ParseDate(params["date"], service.clock.Now())
	if err != nil {
		return api.Error(err.Error(), http.StatusBadRequest)
	}

	start := time.Now()
	response, err := service.fetcher.FetchPredictions(ctx, tide.DayQuery(position.Lat, position.Lon, date, time.UTC))
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Error fetching predictions")
		return api.Error(err.Error(), http.StatusBadGateway)
	}

	name := service.resolver.Resolve(ctx, position.Lat, position.Lon)

	ds := chart.Derive(chart.Input{
		Predictions: response.Predictions,
		Highs:       response.Highs(),
		Lows:        response.Lows(),
		Date:        date,
		Lat:         position.Lat,
		Lon:         position.Lon,
	})

	return api.Success(api.NewChartResponse(position, name, date, response.Source, ds))
}

func configurationNotice() (events.APIGatewayProxyResponse, error) {
	resp, err := api.Success(api.NewConfigurationResponse(missing))
	resp.StatusCode = http.StatusServiceUnavailable
	return resp, err
}

func main() {
	lambda.Start(handleRequest)
}
