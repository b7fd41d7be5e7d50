package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"geolabs_api/geolabs/auth"
	"geolabs_api/geolabs/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type apiEnv struct {
	DatabaseUri    string
	JwtSecret      string
	AllowedOrigins []string
}

func loadEnvFile(envFile string) {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	err := godotenv.Load(envFile)
	if err != nil {
		log.Fatalf("error loading .env file '%v': %v", envFile, err)
	}
}

func loadEnv() apiEnv {
	missingEnvs := []string{}

	requiredEnv := func(key string) string {
		env := os.Getenv(key)
		if env == "" {
			missingEnvs = append(missingEnvs, key)
			slog.Error("missing required env variable", "key", key)
		}
		return env
	}

	env := apiEnv{
		DatabaseUri:    requiredEnv("DATABASE_URI"),
		JwtSecret:      requiredEnv("JWT_SECRET"),
		AllowedOrigins: strings.Split(requiredEnv("ALLOWED_ORIGINS"), ","),
	}

	if len(missingEnvs) > 0 {
		log.Fatalf("missing required env variables: %v", strings.Join(missingEnvs, ", "))
	}

	return env
}

func main() {
	port := flag.Int("port", 8000, "port to serve the api on")
	envFile := flag.String("env-file", "", "optional .env file to load variables from")
	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}

	env := loadEnv()

	db, err := gorm.Open(postgres.Open(env.DatabaseUri), &gorm.Config{})
	if err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}

	platform := services.NewPlatform(db, auth.NewJwtManager([]byte(env.JwtSecret)))

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   env.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", platform.Routes())

	slog.Info("starting server", "port", *port)
	err = http.ListenAndServe(fmt.Sprintf(":%d", *port), r)
	if err != nil {
		log.Fatalf("listen and serve returned error: %v", err.Error())
	}
}
