package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/assignment"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/lifecycle"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/notify"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/postgres"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	_ = godotenv.Load(".env")
	goapp.StartWithDefault()
	cfg := goapp.Config
	cfg.SetDefault("booking.immediateDelay", 5*time.Minute)

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
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
	assigner, err := assignment.NewService(db, clock)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init assignment")
	}
	lf, err := lifecycle.NewService(&lifecycle.Data{DB: db, Assigner: assigner, Publisher: publisher,
		Clock: clock, Expiry: expiryPolicy(cfg), ImmediateDelay: cfg.GetDuration("booking.immediateDelay"),
		Location: time.Local})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init lifecycle")
	}

	printBanner()

	runEvery := cfg.GetDuration("timer.runEvery")
	if runEvery <= 0 {
		if _, err := lf.ExpirePending(ctx); err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't expire bookings")
		}
		return
	}

	goapp.Log.Info().Dur("every", runEvery).Msg("starting timer")
	ctx, cancelFunc := context.WithCancel(ctx)
	doneCh := startTimer(ctx, runEvery, lf)

	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	<-waitCh
	goapp.Log.Info().Msg("Got exit signal")
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func startTimer(ctx context.Context, every time.Duration, lf *lifecycle.Service) chan struct{} {
	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			if _, err := lf.ExpirePending(ctx); err != nil {
				goapp.Log.Error().Err(err).Msg("can't expire bookings")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return res
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
  ___  _  ______  (_)_______ 
 / _ \| |/_/ __ \/ / ___/ _ \
/  __/>  </ /_/ / / /  /  __/
\___/_/|_/ .___/_/_/   \___/ 
        /_/                  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/A4RehmanSE/DT-Test"))
}
