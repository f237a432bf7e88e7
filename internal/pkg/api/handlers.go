package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/lifecycle"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/transition"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
)

const (
	dueLayout  = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

type updateInput struct {
	Status          string `json:"status"`
	Due             string `json:"due"`
	FromLanguageID  int64  `json:"from_language_id"`
	TranslatorID    int64  `json:"translator_id"`
	TranslatorEmail string `json:"translator_email"`
	AdminComments   string `json:"admin_comments"`
	Reference       string `json:"reference"`
	SessionTime     string `json:"session_time"`
}

type updateResult struct {
	Booking       *persistence.Booking  `json:"booking"`
	StatusChanged bool                  `json:"status_changed"`
	Closed        bool                  `json:"closed,omitempty"`
	Changes       persistence.ChangeSet `json:"changes"`
}

type endResult struct {
	Booking *persistence.Booking `json:"booking"`
	Ended   bool                 `json:"ended"`
}

type expireResult struct {
	Expired int `json:"expired"`
}

func create(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("create method")()
		var input lifecycle.CreateRequest
		if err := c.Bind(&input); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode request")
		}
		res, err := data.Lifecycle.Create(c.Request().Context(), actor(c), &input)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusCreated, res)
	}
}

func storeEmail(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("store email method")()
		var input lifecycle.EmailRequest
		if err := c.Bind(&input); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode request")
		}
		ctx := c.Request().Context()
		if err := ownsBooking(ctx, data, actor(c), input.BookingID); err != nil {
			return err
		}
		res, err := data.Lifecycle.StoreJobEmail(ctx, &input)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

// ownsBooking allows admins and the booking customer
func ownsBooking(ctx context.Context, data *Data, u *persistence.User, id int64) error {
	if u.Role.Admin() {
		return nil
	}
	b, err := data.DB.LoadBooking(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if b.UserID != u.ID {
		return echo.NewHTTPError(http.StatusForbidden, "not your booking")
	}
	return nil
}

func update(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("update method")()
		id, err := bookingID(c)
		if err != nil {
			return err
		}
		var input updateInput
		if err := c.Bind(&input); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode request")
		}
		req, err := toUpdateRequest(&input, data.Location)
		if err != nil {
			return err
		}
		res, err := data.Updater.Update(c.Request().Context(), id, req, actor(c).ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, &updateResult{Booking: res.Booking, StatusChanged: res.StatusChanged,
			Closed: res.Closed, Changes: res.Changes})
	}
}

func toUpdateRequest(input *updateInput, location *time.Location) (*transition.UpdateRequest, error) {
	res := &transition.UpdateRequest{FromLanguageID: input.FromLanguageID, TranslatorID: input.TranslatorID,
		TranslatorEmail: strings.TrimSpace(input.TranslatorEmail), AdminComments: input.AdminComments,
		Reference: input.Reference, SessionTime: input.SessionTime}
	if input.Status != "" {
		res.Status = status.From(input.Status)
		if !res.Status.Valid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong status '"+input.Status+"'")
		}
	}
	if input.Due != "" {
		due, err := time.ParseInLocation(dueLayout, strings.TrimSpace(input.Due), location)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong due '"+input.Due+"'")
		}
		res.Due = due
	}
	return res, nil
}

func accept(data *Data) func(echo.Context) error {
	return bookingOp("accept method", func(c echo.Context, id int64) (interface{}, error) {
		return data.Lifecycle.Accept(c.Request().Context(), id, actor(c))
	})
}

func cancel(data *Data) func(echo.Context) error {
	return bookingOp("cancel method", func(c echo.Context, id int64) (interface{}, error) {
		return data.Lifecycle.Cancel(c.Request().Context(), id, actor(c))
	})
}

func endSession(data *Data) func(echo.Context) error {
	return bookingOp("end method", func(c echo.Context, id int64) (interface{}, error) {
		b, ended, err := data.Lifecycle.EndSession(c.Request().Context(), id, actor(c))
		if err != nil {
			return nil, err
		}
		return &endResult{Booking: b, Ended: ended}, nil
	})
}

func noShow(data *Data) func(echo.Context) error {
	return bookingOp("no show method", func(c echo.Context, id int64) (interface{}, error) {
		return data.Lifecycle.MarkCustomerNoShow(c.Request().Context(), id)
	})
}

func reopen(data *Data) func(echo.Context) error {
	return bookingOp("reopen method", func(c echo.Context, id int64) (interface{}, error) {
		return data.Lifecycle.Reopen(c.Request().Context(), id, actor(c).ID)
	})
}

func resend(data *Data, f func(context.Context, int64) error) func(echo.Context) error {
	return bookingOp("resend method", func(c echo.Context, id int64) (interface{}, error) {
		if err := f(c.Request().Context(), id); err != nil {
			return nil, err
		}
		return &struct {
			ID int64 `json:"id"`
		}{ID: id}, nil
	})
}

func bookingOp(name string, f func(echo.Context, int64) (interface{}, error)) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate(name)()
		id, err := bookingID(c)
		if err != nil {
			return err
		}
		res, err := f(c, id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func usersJobs(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("jobs method")()
		res, err := data.Lifecycle.UsersJobs(c.Request().Context(), actor(c).ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func usersHistory(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("history method")()
		page, err := intParam(c, "page")
		if err != nil {
			return err
		}
		res, err := data.Lifecycle.UsersJobsHistory(c.Request().Context(), actor(c).ID, page)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func list(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("list method")()
		f, err := toFilter(c, data.Location)
		if err != nil {
			return err
		}
		res, err := data.Lifecycle.List(c.Request().Context(), actor(c), f)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func expire(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("expire method")()
		n, err := data.Lifecycle.ExpirePending(c.Request().Context())
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, &expireResult{Expired: n})
	}
}

func toFilter(c echo.Context, location *time.Location) (*persistence.BookingFilter, error) {
	res := &persistence.BookingFilter{CustomerEmail: strings.TrimSpace(c.QueryParam("customer_email")),
		TranslatorEmail: strings.TrimSpace(c.QueryParam("translator_email"))}
	for _, s := range splitParam(c.QueryParam("status")) {
		st := status.From(s)
		if !st.Valid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong status '"+s+"'")
		}
		res.Statuses = append(res.Statuses, st)
	}
	for _, s := range splitParam(c.QueryParam("lang")) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong lang '"+s+"'")
		}
		res.LanguageIDs = append(res.LanguageIDs, id)
	}
	for _, s := range splitParam(c.QueryParam("job_type")) {
		jt := persistence.JobTypeFrom(s)
		if jt == 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong job_type '"+s+"'")
		}
		res.JobTypes = append(res.JobTypes, jt)
	}
	if s := c.QueryParam("immediate"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong immediate '"+s+"'")
		}
		res.Immediate = &v
	}
	var err error
	if res.DueFrom, err = dateParam(c, "due_from", location, 0); err != nil {
		return nil, err
	}
	if res.DueTo, err = dateParam(c, "due_to", location, 1); err != nil {
		return nil, err
	}
	if res.CreatedFrom, err = dateParam(c, "created_from", location, 0); err != nil {
		return nil, err
	}
	if res.CreatedTo, err = dateParam(c, "created_to", location, 1); err != nil {
		return nil, err
	}
	if res.Page, err = intParam(c, "page"); err != nil {
		return nil, err
	}
	return res, nil
}

// dateParam parses a date, addDays moves "to" dates to the end of the day
func dateParam(c echo.Context, name string, location *time.Location, addDays int) (*time.Time, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return nil, nil
	}
	res, err := time.ParseInLocation(dateLayout, s, location)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "wrong "+name+" '"+s+"'")
	}
	res = res.AddDate(0, 0, addDays)
	return &res, nil
}

func intParam(c echo.Context, name string) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	res, err := strconv.Atoi(s)
	if err != nil || res < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "wrong "+name+" '"+s+"'")
	}
	return res, nil
}

func splitParam(s string) []string {
	var res []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}
