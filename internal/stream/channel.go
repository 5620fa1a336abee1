// Package stream implements the streaming text channel: ordered fragment
// accumulation with an exactly-once completion signal.
package stream

import (
	"strings"
	"sync"

	"saga-server/internal/models"
)

// FragmentFunc receives the accumulated text after each fragment, in
// arrival order.
type FragmentFunc func(accumulated string)

// DoneFunc fires exactly once when the stream completes. On early
// transport termination it still fires, with whatever text accumulated,
// a nil payload and the transport error.
type DoneFunc func(fullText string, payload *models.TurnResponse, err error)

// TextChannel accumulates ordered text fragments into one growing string.
// Fragments are concatenated strictly in arrival order; the structured
// payload is only valid once completion has fired.
type TextChannel struct {
	mu         sync.Mutex
	builder    strings.Builder
	completed  bool
	onFragment FragmentFunc
	onDone     DoneFunc
}

// NewTextChannel creates a channel. Either callback may be nil.
func NewTextChannel(onFragment FragmentFunc, onDone DoneFunc) *TextChannel {
	return &TextChannel{onFragment: onFragment, onDone: onDone}
}

// Write appends one fragment and reports the accumulated text. Fragments
// arriving after completion are dropped.
func (c *TextChannel) Write(fragment string) {
	if fragment == "" {
		return
	}
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return
	}
	c.builder.WriteString(fragment)
	accumulated := c.builder.String()
	onFragment := c.onFragment
	c.mu.Unlock()

	if onFragment != nil {
		onFragment(accumulated)
	}
}

// Complete signals normal completion with the final structured payload.
// Only the first completion (normal or failed) has any effect.
func (c *TextChannel) Complete(payload *models.TurnResponse) {
	c.finish(payload, nil)
}

// Fail signals early transport termination. Completion still fires so the
// caller can engage the fallback path: accumulated text, nil payload.
func (c *TextChannel) Fail(err error) {
	c.finish(nil, err)
}

// Text returns the text accumulated so far.
func (c *TextChannel) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.String()
}

func (c *TextChannel) finish(payload *models.TurnResponse, err error) {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	fullText := c.builder.String()
	onDone := c.onDone
	c.mu.Unlock()

	if onDone != nil {
		onDone(fullText, payload, err)
	}
}
