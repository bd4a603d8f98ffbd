package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"goodimpact-server/config"
	"goodimpact-server/handlers"
	"goodimpact-server/middleware"
	"goodimpact-server/services"
	"goodimpact-server/store"
	"goodimpact-server/utils/geo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	kv, err := store.NewKVStore(ctx, cfg.MongoURI, cfg.MongoDatabase, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}

	fallback := geo.Coordinate{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng}

	// Initialize services and handlers
	catalog := services.NewCatalogService(kv)
	locations := services.NewLocationService(fallback, kv)
	queries := services.NewQueryService(catalog, locations)

	missionHandler := handlers.NewMissionHandler(queries, catalog, cfg.DefaultRadiusKm)
	userHandler := handlers.NewUserHandler(queries, catalog, locations, cfg.DefaultRadiusKm)

	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	// Mission routes
	missionRouter := r.PathPrefix("/missions").Subrouter()
	missionRouter.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	missionRouter.HandleFunc("", missionHandler.GetMissions).Methods("GET", "OPTIONS")
	missionRouter.HandleFunc("", missionHandler.CreateMission).Methods("POST", "OPTIONS")
	missionRouter.HandleFunc("/{id}/join", missionHandler.JoinMission).Methods("POST", "OPTIONS")

	// Matching routes
	usersRouter := r.PathPrefix("/users").Subrouter()
	usersRouter.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	usersRouter.HandleFunc("/match", userHandler.GetUserMatches).Methods("GET", "OPTIONS")
	usersRouter.HandleFunc("/nearby", userHandler.GetNearbyUsers).Methods("GET", "OPTIONS")

	// Profile and location-tracking routes
	userRouter := r.PathPrefix("/user").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	userRouter.HandleFunc("/profile", userHandler.GetProfile).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/location", userHandler.GetLocationState).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/location/ping", userHandler.PingLocation).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/location/error", userHandler.ReportLocationError).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/location/restart", userHandler.RestartTracking).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/location/stop", userHandler.StopTracking).Methods("POST", "OPTIONS")

	log.Printf("Server starting on %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}
