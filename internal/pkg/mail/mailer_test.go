package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(e *email.Email) error {
	args := m.Called(e)
	return args.Error(0)
}

func initTest(t *testing.T) (*Mailer, *mockSender) {
	t.Helper()
	s := &mockSender{}
	m, err := NewMailer(s, "info@o.lt")
	require.Nil(t, err)
	return m, s
}

func TestNewMailer(t *testing.T) {
	_, err := NewMailer(nil, "info@o.lt")
	assert.NotNil(t, err)
	_, err = NewMailer(&mockSender{}, "")
	assert.NotNil(t, err)
	_, err = NewMailer(&mockSender{}, "olia")
	assert.NotNil(t, err)
}

func TestSend(t *testing.T) {
	m, s := initTest(t)
	s.On("Send", mock.Anything).Return(nil)
	err := m.Send(test.Ctx(t), "c@o.lt", "Jonas", "subj", TmplSessionEnded,
		&Data{Name: "Jonas", JobID: 10, Language: "Svenska", SessionTime: "1 tim 5 min", ForText: "faktura"})
	require.Nil(t, err)
	e := s.Calls[0].Arguments[0].(*email.Email)
	assert.Equal(t, "info@o.lt", e.From)
	assert.Equal(t, []string{`"Jonas" <c@o.lt>`}, e.To)
	assert.Equal(t, "subj", e.Subject)
	assert.Contains(t, string(e.Text), "#10")
	assert.Contains(t, string(e.Text), "1 tim 5 min")
	assert.Contains(t, string(e.Text), "faktura")
}

func TestSend_AllTemplates(t *testing.T) {
	m, s := initTest(t)
	s.On("Send", mock.Anything).Return(nil)
	for _, k := range []string{TmplJobCreated, TmplJobAccepted, TmplNewTranslator, TmplChangedTranslatorCust,
		TmplChangedTranslatorOld, TmplStatusToCustomer, TmplStatusChangedCustomer, TmplJobCancelTranslator,
		TmplSessionEnded, TmplJobChangedDate, TmplJobChangedLang} {
		t.Run(k, func(t *testing.T) {
			assert.Nil(t, m.Send(test.Ctx(t), "c@o.lt", "Jonas", "subj", k, &Data{JobID: 1}))
		})
	}
}

func TestSend_Fail(t *testing.T) {
	m, s := initTest(t)
	s.On("Send", mock.Anything).Return(fmt.Errorf("olia"))
	assert.NotNil(t, m.Send(test.Ctx(t), "c@o.lt", "Jonas", "subj", TmplJobCreated, &Data{}))
	assert.NotNil(t, m.Send(test.Ctx(t), "", "Jonas", "subj", TmplJobCreated, &Data{}))
	assert.NotNil(t, m.Send(test.Ctx(t), "c@o.lt", "Jonas", "subj", "emails.olia", &Data{}))
	ctx, cf := context.WithCancel(context.Background())
	cf()
	assert.NotNil(t, m.Send(ctx, "c@o.lt", "Jonas", "subj", TmplJobCreated, &Data{}))
	s.AssertNumberOfCalls(t, "Send", 1)
}

func TestFakeSender(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		got = string(b)
		rw.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	s, err := NewFakeSender(server.URL)
	require.Nil(t, err)
	e := email.NewEmail()
	e.Subject = "olia"
	require.Nil(t, s.Send(e))
	assert.True(t, strings.Contains(got, "olia"))

	_, err = NewFakeSender("")
	assert.NotNil(t, err)
}
