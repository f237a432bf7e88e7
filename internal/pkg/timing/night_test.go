package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightWindow_IsNight(t *testing.T) {
	w := DefaultNightWindow(time.UTC)
	at := func(h, m int) time.Time { return time.Date(2023, 3, 1, h, m, 0, 0, time.UTC) }
	assert.True(t, w.IsNight(at(0, 0)))
	assert.True(t, w.IsNight(at(7, 59)))
	assert.False(t, w.IsNight(at(8, 0)))
	assert.False(t, w.IsNight(at(21, 59)))
	assert.True(t, w.IsNight(at(22, 0)))
	assert.True(t, w.IsNight(at(23, 30)))
}

func TestNightWindow_IsNight_Location(t *testing.T) {
	w := DefaultNightWindow(time.FixedZone("x", 2*3600))
	assert.False(t, w.IsNight(time.Date(2023, 3, 1, 6, 30, 0, 0, time.UTC)))
	assert.True(t, w.IsNight(time.Date(2023, 3, 1, 20, 30, 0, 0, time.UTC)))
}

func TestNightWindow_NextBusinessTime(t *testing.T) {
	w := DefaultNightWindow(time.UTC)
	assert.Equal(t, time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC),
		w.NextBusinessTime(time.Date(2023, 3, 1, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2023, 3, 2, 8, 0, 0, 0, time.UTC),
		w.NextBusinessTime(time.Date(2023, 3, 1, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2023, 3, 2, 8, 0, 0, 0, time.UTC),
		w.NextBusinessTime(time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC),
		w.NextBusinessTime(time.Date(2023, 3, 31, 22, 30, 0, 0, time.UTC)))
}

func TestNewNightWindow(t *testing.T) {
	w, err := NewNightWindow("07:30", "21:00", time.UTC)
	require.Nil(t, err)
	assert.True(t, w.IsNight(time.Date(2023, 3, 1, 7, 29, 0, 0, time.UTC)))
	assert.False(t, w.IsNight(time.Date(2023, 3, 1, 7, 30, 0, 0, time.UTC)))
	assert.True(t, w.IsNight(time.Date(2023, 3, 1, 21, 0, 0, 0, time.UTC)))

	_, err = NewNightWindow("7", "21:00", time.UTC)
	assert.NotNil(t, err)
	_, err = NewNightWindow("07:00", "x", time.UTC)
	assert.NotNil(t, err)
	_, err = NewNightWindow("22:00", "08:00", time.UTC)
	assert.NotNil(t, err)
}
