package main

import (
	"context"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/postgres"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	goapp.StartWithDefault()
	cfg := goapp.Config

	ctx := context.Background()

	dbPool, err := pgxpool.New(ctx, cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	v, err := postgres.Migrate(ctx, dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't migrate")
	}
	goapp.Log.Info().Int64("version", v).Msg("done")
}
