package handler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fixedCounter int

func (n fixedCounter) LiveSessions() int { return int(n) }

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "3h 5m 0s", formatDuration(3*time.Hour+5*time.Minute))
	assert.Equal(t, "2d 1h 0m 9s", formatDuration(49*time.Hour+9*time.Second))
}

func TestSystemHandler_CollectWithoutRedis(t *testing.T) {
	h := NewSystemHandler(nil, fixedCounter(4), zerolog.Nop())

	m := h.collect(context.Background())

	assert.Equal(t, 4, m.LiveSessions)
	assert.Zero(t, m.QueueResults)
	assert.Positive(t, m.Goroutines)
	assert.NotEmpty(t, m.GoVersion)
}
