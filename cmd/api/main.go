package main

import (
	"context"
	"net/http"

	_ "mecabal-location/docs"
	"mecabal-location/internal/cache"
	"mecabal-location/internal/config"
	"mecabal-location/internal/geo"
	"mecabal-location/internal/handler"
	"mecabal-location/internal/landmarks"
	"mecabal-location/internal/logger"
	"mecabal-location/internal/models"
	"mecabal-location/internal/neighborhood"
	"mecabal-location/internal/places"
	"mecabal-location/internal/query"
	"mecabal-location/internal/repository"
	"mecabal-location/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	base := logger.Setup(config.LogLevel, config.LogFormat)
	if config.PlacesAPIKey == "" {
		log.Warn().Msg("PLACES_API_KEY is not set, place search and landmarks will fail with missing_credentials")
	}

	// Neighborhood reference data
	var repo neighborhood.Repository
	switch {
	case config.DBSource != "":
		conn, err := pgxpool.New(context.Background(), config.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()
		repo = repository.NewNeighborhoodRepository(conn)
	case config.NeighborhoodsFile != "":
		static, err := neighborhood.LoadStaticRepository(config.NeighborhoodsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load neighborhoods file")
		}
		repo = static
	default:
		log.Fatal().Msg("either DB_SOURCE or NEIGHBORHOODS_FILE must be set")
	}

	// Result cache
	var store cache.Store = cache.NewMemoryStore()
	if config.CacheBackend == "redis" {
		rdb := cache.OpenRedis(config.RedisAddr, config.RedisPassword, config.RedisDB)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", config.RedisAddr).Msg("cannot connect to redis")
		}
		defer rdb.Close()
		store = cache.NewRedisStore(rdb, "mecabal:")
	}
	resultCache := cache.New(store, config.CacheNegativeTTL)

	// Initialize layers
	validator := geo.NewValidator(config.Region())

	matchOpts := config.MatchOptions()
	matchOpts.OnTransition = func(from, to models.VerificationStatus) {
		log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("verification transition")
	}
	matcher := neighborhood.NewMatcher(repo, validator, matchOpts)

	client := places.NewClient(config.PlacesAPIKey, places.WithBaseURL(config.PlacesBaseURL))
	provider := service.NewGuardedProvider(client, config.RetryPolicy(), config.PlacesTimeout)
	aggregator := landmarks.NewAggregator(provider, resultCache, config.LandmarkOptions())

	svcOpts := service.DefaultOptions()
	svcOpts.TextMaxResults = config.TextSearchMaxResults
	svcOpts.CacheTTL = config.CachePositiveTTL

	locationService := service.NewLocationService(service.Deps{
		Verifier:   matcher,
		Landmarks:  aggregator,
		Places:     provider,
		Variations: query.NewGenerator(config.QueryOptions()),
		Validator:  validator,
		Cache:      resultCache,
	}, svcOpts)

	r := handler.NewRouter(handler.Handlers{
		Places:    handler.NewPlacesHandler(locationService),
		Landmarks: handler.NewLandmarksHandler(locationService),
		Verify:    handler.NewVerifyHandler(locationService),
	}, logger.Middleware(base))

	log.Info().Str("addr", config.ServerAddress).Msg("starting server")
	if err := r.Run(config.ServerAddress); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
