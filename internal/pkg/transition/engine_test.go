package transition

import (
	"errors"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/assignment"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test/memdb"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test/mocks"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	dbMock    *memdb.DB
	pubMock   *mocks.Publisher
	clock     *timing.FixedClock
	engine    *Engine
	customer  *persistence.User
	trA, trB  *persistence.User
	actorID   = int64(1)
	futureDue = testNow.Add(48 * time.Hour)
)

func initTest(t *testing.T) {
	t.Helper()
	dbMock = memdb.New()
	pubMock = &mocks.Publisher{}
	pubMock.On("Publish", mock.Anything, mock.Anything)
	clock = &timing.FixedClock{At: testNow}
	dbMock.AddLanguage(1, "Svenska")
	dbMock.AddLanguage(2, "Arabiska")
	customer = dbMock.AddUser(&persistence.User{Role: persistence.RoleCustomer, Name: "c", Email: "c@e.se", Active: true})
	trA = dbMock.AddUser(&persistence.User{Role: persistence.RoleTranslator, Name: "a", Email: "a@e.se", Active: true}, 1)
	trB = dbMock.AddUser(&persistence.User{Role: persistence.RoleTranslator, Name: "b", Email: "b@e.se", Active: true}, 1)
	as, err := assignment.NewService(dbMock, clock)
	require.Nil(t, err)
	engine, err = NewEngine(&Data{DB: dbMock, Translators: as, Publisher: pubMock, Clock: clock,
		Expiry: timing.DefaultExpiryPolicy()})
	require.Nil(t, err)
}

func addBooking(t *testing.T, st status.Status, due time.Time, translator *persistence.User) *persistence.Booking {
	t.Helper()
	b := &persistence.Booking{UserID: customer.ID, FromLanguageID: 1, Status: st, Due: due, Duration: 60,
		JobType: persistence.JobTypePaid, Created: testNow.Add(-time.Hour)}
	require.Nil(t, dbMock.InsertBooking(test.Ctx(t), b))
	if translator != nil {
		require.Nil(t, dbMock.InsertAssignment(test.Ctx(t), &persistence.Assignment{UserID: translator.ID, JobID: b.ID,
			Created: testNow.Add(-time.Hour)}))
	}
	return b
}

func kinds(events []messages.Event) []messages.Kind {
	var res []messages.Kind
	for _, e := range events {
		res = append(res, e.Kind)
	}
	return res
}

func TestNewEngine(t *testing.T) {
	initTest(t)
	as, _ := assignment.NewService(dbMock, clock)
	data := Data{DB: dbMock, Translators: as, Publisher: pubMock, Clock: clock, Expiry: timing.DefaultExpiryPolicy()}
	for _, f := range []func(d *Data){func(d *Data) { d.DB = nil }, func(d *Data) { d.Translators = nil },
		func(d *Data) { d.Publisher = nil }, func(d *Data) { d.Clock = nil },
		func(d *Data) { d.Expiry = timing.ExpiryPolicy{} }} {
		c := data
		f(&c)
		_, err := NewEngine(&c)
		assert.NotNil(t, err)
	}
}

func TestUpdate_NoChange(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Pending, futureDue, nil)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Pending, AdminComments: "c",
		Reference: "r"}, actorID)

	require.Nil(t, err)
	assert.False(t, res.StatusChanged)
	assert.True(t, res.Changes.Empty())
	assert.Empty(t, res.Events)
	assert.Len(t, dbMock.Audits(), 0)
	sb := dbMock.Booking(b.ID)
	assert.Equal(t, "c", sb.AdminComments)
	assert.Equal(t, "r", sb.Reference)
}

func TestUpdate_NotFound(t *testing.T) {
	initTest(t)

	_, err := engine.Update(test.Ctx(t), 1000, &UpdateRequest{Status: status.Pending}, actorID)

	assert.True(t, errors.Is(err, utils.ErrNotFound))
	assert.Len(t, pubMock.Calls, 0)
}

func TestUpdate_StartedToCompletedNoSession(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Started, testNow.Add(-time.Hour), trA)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Completed, AdminComments: "done"}, actorID)

	require.Nil(t, err)
	assert.False(t, res.StatusChanged)
	assert.Equal(t, status.Started, dbMock.Booking(b.ID).Status)
	assert.Nil(t, res.Changes.Status)
}

func TestUpdate_StartedToCompleted(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Started, testNow.Add(-time.Hour), trA)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Completed, AdminComments: "done",
		SessionTime: "1:10:00"}, actorID)

	require.Nil(t, err)
	assert.True(t, res.StatusChanged)
	assert.True(t, res.Closed)
	sb := dbMock.Booking(b.ID)
	assert.Equal(t, status.Completed, sb.Status)
	assert.Equal(t, "1:10:00", sb.SessionTime)
	assert.Equal(t, []messages.Kind{messages.SessionEndedMail, messages.SessionEndedMail, messages.StatusChanged},
		kinds(res.Events))
	assert.Equal(t, trA.ID, res.Events[1].TranslatorID)
	assert.Equal(t, kinds(res.Events), pubMock.Kinds())
	au := dbMock.Audits()
	require.Len(t, au, 1)
	assert.Equal(t, &persistence.StatusChange{Old: status.Started, New: status.Completed}, au[0].Changes.Status)
	assert.Equal(t, actorID, au[0].ActorID)
	assert.NotEmpty(t, au[0].ID)
}

func TestUpdate_PendingToAssigned(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Pending, futureDue, nil)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Assigned, TranslatorID: trA.ID}, actorID)

	require.Nil(t, err)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, &persistence.TranslatorChange{New: "a@e.se"}, res.Changes.Translator)
	assert.Equal(t, []messages.Kind{messages.AcceptedMail, messages.AcceptedPush, messages.NewTranslatorMail,
		messages.SessionReminder, messages.StatusChanged}, kinds(res.Events))
	as := dbMock.AllAssignments(b.ID)
	require.Len(t, as, 1)
	assert.Equal(t, trA.ID, as[0].UserID)
	assert.Equal(t, status.Assigned, dbMock.Booking(b.ID).Status)
}

func TestUpdate_ChangeTranslator(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Assigned, futureDue, trA)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Assigned, TranslatorEmail: "b@e.se"}, actorID)

	require.Nil(t, err)
	assert.False(t, res.StatusChanged)
	assert.Equal(t, &persistence.TranslatorChange{Old: "a@e.se", New: "b@e.se"}, res.Changes.Translator)
	require.Len(t, res.Events, 1)
	e := res.Events[0]
	assert.Equal(t, messages.ChangedTranslatorMail, e.Kind)
	assert.Equal(t, trB.ID, e.TranslatorID)
	assert.Equal(t, trA.ID, e.OldTranslatorID)
	as := dbMock.AllAssignments(b.ID)
	require.Len(t, as, 2)
	assert.NotNil(t, as[0].CancelAt)
	assert.Nil(t, as[1].CancelAt)
}

func TestUpdate_DueAndLanguage(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Assigned, futureDue, trA)
	newDue := futureDue.Add(time.Hour)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Due: newDue, FromLanguageID: 2}, actorID)

	require.Nil(t, err)
	assert.Equal(t, &persistence.DueChange{Old: futureDue, New: newDue}, res.Changes.Due)
	assert.Equal(t, &persistence.LanguageChange{Old: 1, New: 2, OldName: "Svenska", NewName: "Arabiska"}, res.Changes.Language)
	assert.Equal(t, []messages.Kind{messages.ChangedDateMail, messages.ChangedLanguageMail}, kinds(res.Events))
	assert.Equal(t, futureDue, *res.Events[0].OldDue)
	assert.Equal(t, trA.ID, res.Events[0].TranslatorID)
	assert.Equal(t, int64(1), res.Events[1].OldLanguageID)
	sb := dbMock.Booking(b.ID)
	assert.Equal(t, newDue, sb.Due)
	assert.Equal(t, int64(2), sb.FromLanguageID)
	assert.Len(t, dbMock.Audits(), 1)
}

func TestUpdate_DueChangeRecomputesExpiry(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Pending, futureDue, nil)
	newDue := testNow.Add(10 * 24 * time.Hour)

	_, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Due: newDue}, actorID)

	require.Nil(t, err)
	sb := dbMock.Booking(b.ID)
	require.NotNil(t, sb.WillExpireAt)
	assert.Equal(t, newDue.Add(-48*time.Hour), *sb.WillExpireAt)
}

func TestUpdate_ClosedSkipsChangeNotifications(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Assigned, futureDue, trA)
	pastDue := testNow.Add(-time.Hour)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Due: pastDue, FromLanguageID: 2}, actorID)

	require.Nil(t, err)
	assert.True(t, res.Closed)
	assert.Empty(t, res.Events)
	assert.NotNil(t, res.Changes.Due)
	assert.Equal(t, pastDue, dbMock.Booking(b.ID).Due)
}

func TestUpdate_TimedOutToPending(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.TimedOut, futureDue, nil)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Pending}, actorID)

	require.Nil(t, err)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, []messages.Kind{messages.ReopenedMail, messages.SuitableJobPush, messages.StatusChanged},
		kinds(res.Events))
	sb := dbMock.Booking(b.ID)
	assert.Equal(t, status.Pending, sb.Status)
	assert.Equal(t, testNow, sb.Created)
}

func TestUpdate_TimedOutTranslatorChanged(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.TimedOut, futureDue, nil)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.Assigned, TranslatorID: trB.ID}, actorID)

	require.Nil(t, err)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, []messages.Kind{messages.AcceptedMail, messages.ChangedTranslatorMail, messages.StatusChanged},
		kinds(res.Events))
}

func TestUpdate_AssignedWithdraw(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Assigned, futureDue, trA)

	res, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{Status: status.WithdrawBefore24}, actorID)

	require.Nil(t, err)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, []messages.Kind{messages.WithdrawnCustomerMail, messages.TranslatorCancelledMail,
		messages.StatusChanged}, kinds(res.Events))
	assert.Equal(t, trA.ID, res.Events[1].TranslatorID)
	assert.NotNil(t, dbMock.Booking(b.ID).WithdrawAt)
}

func TestUpdate_WrongTranslatorRollsBack(t *testing.T) {
	initTest(t)
	b := addBooking(t, status.Assigned, futureDue, trA)

	_, err := engine.Update(test.Ctx(t), b.ID, &UpdateRequest{TranslatorID: customer.ID, AdminComments: "x"}, actorID)

	require.True(t, errors.Is(err, utils.ErrInvalidInput))
	as := dbMock.AllAssignments(b.ID)
	require.Len(t, as, 1)
	assert.Nil(t, as[0].CancelAt)
	assert.Equal(t, "", dbMock.Booking(b.ID).AdminComments)
	assert.Len(t, pubMock.Calls, 0)
}
