package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/mail"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/notify"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/postgres"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/push"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/sms"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	ainform "github.com/airenas/async-api/pkg/inform"
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

	data := &notify.ServiceData{}
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

	data.GueClient, err = postgres.NewGueClient(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.WorkerCount = defaultV(cfg.GetInt("worker.count"), 3)

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	dData := &notify.Data{DB: db, Clock: timing.SystemClock{}, SMSFrom: cfg.GetString("sms.from")}
	dData.Location = time.Local
	if location := cfg.GetString("location"); location != "" {
		dData.Location, err = time.LoadLocation(location)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init location")
		}
		goapp.Log.Info().Str("local", time.Now().In(dData.Location).Format(time.RFC3339)).Msg("time")
	}
	dData.Night = timing.DefaultNightWindow(dData.Location)
	if bs, be := cfg.GetString("business.start"), cfg.GetString("business.end"); bs != "" || be != "" {
		dData.Night, err = timing.NewNightWindow(bs, be, dData.Location)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init business hours")
		}
	}

	emailSender, err := newEmailSender(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init email sender")
	}
	dData.Mailer, err = mail.NewMailer(emailSender, cfg.GetString("mail.from"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init mailer")
	}
	dData.Push, err = push.NewClient(cfg.GetString("push.url"), cfg.GetString("push.appID"), cfg.GetString("push.apiKey"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init push client")
	}
	dData.SMS, err = sms.NewClient(cfg.GetString("sms.url"), cfg.GetString("sms.apiKey"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init sms client")
	}
	data.Dispatcher, err = notify.NewDispatcher(dData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init dispatcher")
	}

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	printBanner()

	ctx, cancelFunc := context.WithCancel(context.Background())
	doneCh, err := notify.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start notifier service")
	}
	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func newEmailSender(cfg *viper.Viper) (mail.Sender, error) {
	if url := cfg.GetString("smtp.fakeUrl"); url != "" {
		goapp.Log.Info().Str("sender", "fake").Msg("smtp")
		return mail.NewFakeSender(url)
	}
	goapp.Log.Info().Str("sender", "real").Msg("smtp")
	return ainform.NewSimpleEmailSender(cfg)
}

func defaultV[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                __  _ _____          
   ____  ____  / /_(_) __(_)__  _____
  / __ \/ __ \/ __/ / /_/ / _ \/ ___/
 / / / / /_/ / /_/ / __/ /  __/ /    
/_/ /_/\____/\__/_/_/ /_/\___/_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/A4RehmanSE/DT-Test"))
}
