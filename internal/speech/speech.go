// Package speech defines the narration capability consumed by the learning
// engine. Concrete engines live under internal/adapter/speech.
package speech

import (
	"sync"
)

// Voice describes how a text should be narrated.
type Voice struct {
	Name     string  `yaml:"name"     json:"name"`
	Language string  `yaml:"language" json:"language"`
	Speed    float64 `yaml:"speed"    json:"speed"`
}

// Utterance is the handle of one narration request. Started fires at most
// once and may never fire; Done delivers exactly one value (nil or the
// failure) and is then closed.
type Utterance struct {
	started    chan struct{}
	done       chan error
	startOnce  sync.Once
	finishOnce sync.Once
}

// NewUtterance creates a pending utterance.
func NewUtterance() *Utterance {
	return &Utterance{
		started: make(chan struct{}),
		done:    make(chan error, 1),
	}
}

// Started is closed when the engine reports that audio began.
func (u *Utterance) Started() <-chan struct{} { return u.started }

// Done yields the narration outcome once.
func (u *Utterance) Done() <-chan error { return u.done }

// MarkStarted signals the start of audio. Extra calls are ignored.
func (u *Utterance) MarkStarted() {
	u.startOnce.Do(func() { close(u.started) })
}

// Finish completes the utterance. Only the first call has an effect.
func (u *Utterance) Finish(err error) {
	u.finishOnce.Do(func() {
		u.done <- err
		close(u.done)
	})
}

// Finished returns an utterance that already completed with err.
func Finished(err error) *Utterance {
	u := NewUtterance()
	u.Finish(err)
	return u
}
