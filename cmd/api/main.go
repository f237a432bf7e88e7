package main

import (
	"context"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/api"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/assignment"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/lifecycle"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/notify"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/postgres"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/transition"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	_ = godotenv.Load(".env")
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	cfg.SetDefault("booking.immediateDelay", 5*time.Minute)
	data := &api.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.Location = time.Local
	if location := cfg.GetString("location"); location != "" {
		data.Location, err = time.LoadLocation(location)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init location")
		}
		goapp.Log.Info().Str("local", time.Now().In(data.Location).Format(time.RFC3339)).Msg("time")
	}

	gc, err := postgres.NewGueClient(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	sender, err := postgres.NewSender(gc)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init sender")
	}
	publisher, err := notify.NewQueue(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init publisher")
	}

	clock := timing.SystemClock{}
	expiry := expiryPolicy(cfg)
	assigner, err := assignment.NewService(db, clock)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init assignment")
	}

	lf, err := lifecycle.NewService(&lifecycle.Data{DB: db, Assigner: assigner, Publisher: publisher,
		Clock: clock, Expiry: expiry, ImmediateDelay: cfg.GetDuration("booking.immediateDelay"),
		Location: data.Location})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init lifecycle")
	}
	data.Lifecycle = lf

	data.Updater, err = transition.NewEngine(&transition.Data{DB: db, Translators: assigner, Publisher: publisher,
		Clock: clock, Expiry: expiry})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transition engine")
	}

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	if err := api.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

func expiryPolicy(cfg *viper.Viper) timing.ExpiryPolicy {
	res := timing.DefaultExpiryPolicy()
	for k, v := range map[string]*time.Duration{"expiry.immediateLimit": &res.ImmediateLimit,
		"expiry.shortLimit": &res.ShortLimit, "expiry.shortDelay": &res.ShortDelay,
		"expiry.mediumLimit": &res.MediumLimit, "expiry.mediumDelay": &res.MediumDelay,
		"expiry.longBeforeDue": &res.LongBeforeDue} {
		if cfg.IsSet(k) {
			*v = cfg.GetDuration(k)
		}
	}
	return res
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    __                __   _            
   / /_  ____  ____  / /__(_)___  ____ _
  / __ \/ __ \/ __ \/ //_/ / __ \/ __ ` + "`" + `/
 / /_/ / /_/ / /_/ / ,< / / / / / /_/ / 
/_.___/\____/\____/_/|_/_/_/ /_/\__, /  
                               /____/   
    ____ _____  (_)
   / __ ` + "`" + `/ __ \/ / 
  / /_/ / /_/ / /  
  \__,_/ .___/_/   
      /_/          v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/A4RehmanSE/DT-Test"))
}
