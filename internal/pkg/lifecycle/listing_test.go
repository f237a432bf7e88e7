package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersJobs_Customer(t *testing.T) {
	initTest(t)
	b1 := addBooking(t, status.Pending, testNow.Add(48*time.Hour), nil)
	b2 := addBooking(t, status.Assigned, testNow.Add(2*time.Hour), trA)
	b2.Immediate = true
	require.Nil(t, dbMock.UpdateBooking(test.Ctx(t), b2))
	addBooking(t, status.Completed, testNow.Add(-2*time.Hour), trA)

	res, err := srv.UsersJobs(test.Ctx(t), customer.ID)

	require.Nil(t, err)
	assert.Equal(t, "customer", res.UserType)
	require.Len(t, res.Emergency, 1)
	assert.Equal(t, b2.ID, res.Emergency[0].ID)
	require.Len(t, res.Normal, 1)
	assert.Equal(t, b1.ID, res.Normal[0].ID)
}

func TestUsersJobs_Translator(t *testing.T) {
	initTest(t)
	addBooking(t, status.Pending, testNow.Add(48*time.Hour), nil)
	b := addBooking(t, status.Assigned, testNow.Add(2*time.Hour), trA)
	addBooking(t, status.Assigned, testNow.Add(3*time.Hour), trB)

	res, err := srv.UsersJobs(test.Ctx(t), trA.ID)

	require.Nil(t, err)
	assert.Equal(t, "translator", res.UserType)
	assert.Empty(t, res.Emergency)
	require.Len(t, res.Normal, 1)
	assert.Equal(t, b.ID, res.Normal[0].ID)
}

func TestUsersJobs_Admin(t *testing.T) {
	initTest(t)
	addBooking(t, status.Pending, testNow.Add(48*time.Hour), nil)

	res, err := srv.UsersJobs(test.Ctx(t), admin.ID)

	require.Nil(t, err)
	assert.Equal(t, "", res.UserType)
	assert.Empty(t, res.Normal)
}

func TestUsersJobsHistory(t *testing.T) {
	initTest(t)
	for i := 0; i < 17; i++ {
		addBooking(t, status.Completed, testNow.Add(-time.Duration(i+1)*time.Hour), trA)
	}
	addBooking(t, status.Pending, testNow.Add(time.Hour), nil)

	res, err := srv.UsersJobsHistory(test.Ctx(t), customer.ID, 1)
	require.Nil(t, err)
	assert.Equal(t, 17, res.Total)
	assert.Equal(t, 2, res.NumPages)
	require.Len(t, res.Jobs, 15)
	assert.Equal(t, testNow.Add(-time.Hour), res.Jobs[0].Due)

	res, err = srv.UsersJobsHistory(test.Ctx(t), trA.ID, 2)
	require.Nil(t, err)
	assert.Equal(t, "translator", res.UserType)
	assert.Len(t, res.Jobs, 2)
	assert.Equal(t, 2, res.Page)
}

func TestList(t *testing.T) {
	initTest(t)
	addBooking(t, status.Pending, testNow.Add(48*time.Hour), nil)
	b := addBooking(t, status.Assigned, testNow.Add(2*time.Hour), trA)

	res, err := srv.List(test.Ctx(t), admin, &persistence.BookingFilter{TranslatorEmail: "a@e.se"})

	require.Nil(t, err)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, b.ID, res.Jobs[0].ID)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.NumPages)
}

func TestList_Forbidden(t *testing.T) {
	initTest(t)

	_, err := srv.List(test.Ctx(t), customer, &persistence.BookingFilter{})

	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestExpirePending(t *testing.T) {
	initTest(t)
	expired := addBooking(t, status.Pending, testNow.Add(time.Hour), nil)
	expired.WillExpireAt = persistence.TimePtr(testNow.Add(-time.Minute))
	require.Nil(t, dbMock.UpdateBooking(test.Ctx(t), expired))
	ignored := addBooking(t, status.Pending, testNow.Add(time.Hour), nil)
	ignored.WillExpireAt = persistence.TimePtr(testNow.Add(-time.Minute))
	ignored.IgnoreExpired = true
	require.Nil(t, dbMock.UpdateBooking(test.Ctx(t), ignored))
	later := addBooking(t, status.Pending, testNow.Add(48*time.Hour), nil)
	later.WillExpireAt = persistence.TimePtr(testNow.Add(time.Minute))
	require.Nil(t, dbMock.UpdateBooking(test.Ctx(t), later))

	n, err := srv.ExpirePending(test.Ctx(t))

	require.Nil(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, status.TimedOut, dbMock.Booking(expired.ID).Status)
	assert.Equal(t, status.Pending, dbMock.Booking(ignored.ID).Status)
	assert.Equal(t, status.Pending, dbMock.Booking(later.ID).Status)
	assert.Equal(t, []messages.Kind{messages.ExpiredPush, messages.StatusChanged}, pubMock.Kinds())
	assert.Equal(t, customer.ID, pubMock.Events()[0].RecipientID)
}
