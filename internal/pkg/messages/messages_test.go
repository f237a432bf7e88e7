package messages

import (
	"encoding/json"
	"testing"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusMessageFrom(t *testing.T) {
	assert.Equal(t, &StatusMessage{BookingID: 10, Status: status.Assigned},
		NewStatusMessageFrom(&Event{Kind: StatusChanged, BookingID: 10, Status: status.Assigned, RecipientID: 5}))
}

func TestNotifyMessage_JSON(t *testing.T) {
	b, err := json.Marshal(&NotifyMessage{Event: Event{Kind: AcceptedMail, BookingID: 10, Status: status.Assigned}})
	require.Nil(t, err)
	assert.Contains(t, string(b), `"event":{"kind":"accepted_mail","bookingID":10,"status":"assigned"}`)
	var m NotifyMessage
	require.Nil(t, json.Unmarshal(b, &m))
	assert.Equal(t, Event{Kind: AcceptedMail, BookingID: 10, Status: status.Assigned}, m.Event)
}
