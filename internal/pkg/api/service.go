package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/lifecycle"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/transition"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// Lifecycle provides booking operations
type Lifecycle interface {
	Create(ctx context.Context, actor *persistence.User, req *lifecycle.CreateRequest) (*persistence.Booking, error)
	StoreJobEmail(ctx context.Context, req *lifecycle.EmailRequest) (*persistence.Booking, error)
	Accept(ctx context.Context, bookingID int64, translator *persistence.User) (*persistence.Booking, error)
	Cancel(ctx context.Context, bookingID int64, actor *persistence.User) (*persistence.Booking, error)
	EndSession(ctx context.Context, bookingID int64, actor *persistence.User) (*persistence.Booking, bool, error)
	MarkCustomerNoShow(ctx context.Context, bookingID int64) (*persistence.Booking, error)
	Reopen(ctx context.Context, bookingID, actorID int64) (*persistence.Booking, error)
	ResendNotifications(ctx context.Context, bookingID int64) error
	ResendSMS(ctx context.Context, bookingID int64) error
	ExpirePending(ctx context.Context) (int, error)
	UsersJobs(ctx context.Context, userID int64) (*lifecycle.UserJobs, error)
	UsersJobsHistory(ctx context.Context, userID int64, page int) (*lifecycle.Page, error)
	List(ctx context.Context, actor *persistence.User, f *persistence.BookingFilter) (*lifecycle.Page, error)
}

// Updater changes booking status, translator, due and language
type Updater interface {
	Update(ctx context.Context, bookingID int64, req *transition.UpdateRequest, actorID int64) (*transition.Result, error)
}

// DB loads the acting user and bookings for ownership checks
type DB interface {
	LoadUser(ctx context.Context, id int64) (*persistence.User, error)
	LoadBooking(ctx context.Context, id int64) (*persistence.Booking, error)
}

// Data keeps data required for service work
type Data struct {
	Port      int
	Lifecycle Lifecycle
	Updater   Updater
	DB        DB
	// Location is used to parse dates in requests
	Location *time.Location
}

// ActorHeader is set by the gateway after authentication
const ActorHeader = "x-user-id"

const actorKey = "actor"

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP booking api service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	e := initRoutes(data)

	e.Server.Addr = ":" + strconv.Itoa(data.Port)
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Lifecycle == nil {
		return errors.New("no lifecycle service")
	}
	if data.Updater == nil {
		return errors.New("no updater")
	}
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Location == nil {
		data.Location = time.Local
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("booking_api", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	user, admin := withActor(data), adminOnly
	e.POST("/bookings", create(data), user)
	e.POST("/bookings/email", storeEmail(data), user)
	e.PUT("/bookings/:id", update(data), user, admin)
	e.POST("/bookings/:id/accept", accept(data), user)
	e.POST("/bookings/:id/cancel", cancel(data), user)
	e.POST("/bookings/:id/end", endSession(data), user)
	e.POST("/bookings/:id/no-show", noShow(data), user, admin)
	e.POST("/bookings/:id/reopen", reopen(data), user, admin)
	e.POST("/bookings/:id/resend-push", resend(data, data.Lifecycle.ResendNotifications), user, admin)
	e.POST("/bookings/:id/resend-sms", resend(data, data.Lifecycle.ResendSMS), user, admin)
	e.GET("/jobs", usersJobs(data), user)
	e.GET("/jobs/history", usersHistory(data), user)
	e.GET("/admin/bookings", list(data), user, admin)
	e.POST("/admin/expire", expire(data), user, admin)
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func withActor(data *Data) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := strconv.ParseInt(c.Request().Header.Get(ActorHeader), 10, 64)
			if err != nil || id <= 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "no user")
			}
			u, err := data.DB.LoadUser(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, utils.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "no user")
				}
				return httpError(err)
			}
			if !u.Active {
				return echo.NewHTTPError(http.StatusForbidden, "user is not active")
			}
			c.Set(actorKey, u)
			return next(c)
		}
	}
}

func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !actor(c).Role.Admin() {
			return echo.NewHTTPError(http.StatusForbidden, "only for admins")
		}
		return next(c)
	}
}

func actor(c echo.Context) *persistence.User {
	res, _ := c.Get(actorKey).(*persistence.User)
	return res
}

func bookingID(c echo.Context) (int64, error) {
	res, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || res <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong booking id '%s'", c.Param("id")))
	}
	return res, nil
}

// httpError maps service errors to http codes, a user message is passed to the caller
func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, utils.ErrInvalidInput), errors.Is(err, utils.ErrInvalidTimeRange):
		code = http.StatusBadRequest
	case errors.Is(err, utils.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, utils.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, utils.ErrConflict), errors.Is(err, utils.ErrInvalidState):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(code)
	}
	goapp.Log.Warn().Err(err).Int("code", code).Send()
	msg := utils.UserMessage(err)
	if msg == "" {
		msg = http.StatusText(code)
	}
	return echo.NewHTTPError(code, msg)
}
