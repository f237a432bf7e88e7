package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_defaultV(t *testing.T) {
	assert.Equal(t, "vd", defaultV("", "vd"))
	assert.Equal(t, "aaa", defaultV("aaa", "vd"))
	assert.Equal(t, 3, defaultV(0, 3))
	assert.Equal(t, 10, defaultV(10, 3))
	assert.Equal(t, time.Minute, defaultV(time.Duration(0), time.Minute))
}
