package learning

import (
	"context"
	"sync"

	"github.com/heartmarshall/myenglish-session/internal/speech"
)

var _ speaker = &speakerMock{}

type speakerMock struct {
	SpeakFunc func(ctx context.Context, text string, voice speech.Voice) *speech.Utterance
	StopFunc  func()

	calls struct {
		Speak []struct {
			Ctx   context.Context
			Text  string
			Voice speech.Voice
		}
		Stop []struct{}
	}
	lockSpeak sync.RWMutex
	lockStop  sync.RWMutex
}

func (mock *speakerMock) Speak(ctx context.Context, text string, voice speech.Voice) *speech.Utterance {
	if mock.SpeakFunc == nil {
		panic("speakerMock.SpeakFunc: method is nil but speaker.Speak was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Text  string
		Voice speech.Voice
	}{Ctx: ctx, Text: text, Voice: voice}
	mock.lockSpeak.Lock()
	mock.calls.Speak = append(mock.calls.Speak, callInfo)
	mock.lockSpeak.Unlock()
	return mock.SpeakFunc(ctx, text, voice)
}

func (mock *speakerMock) SpeakCalls() []struct {
	Ctx   context.Context
	Text  string
	Voice speech.Voice
} {
	mock.lockSpeak.RLock()
	calls := mock.calls.Speak
	mock.lockSpeak.RUnlock()
	return calls
}

func (mock *speakerMock) Stop() {
	if mock.StopFunc == nil {
		panic("speakerMock.StopFunc: method is nil but speaker.Stop was just called")
	}
	callInfo := struct{}{}
	mock.lockStop.Lock()
	mock.calls.Stop = append(mock.calls.Stop, callInfo)
	mock.lockStop.Unlock()
	mock.StopFunc()
}

func (mock *speakerMock) StopCalls() []struct{} {
	mock.lockStop.RLock()
	calls := mock.calls.Stop
	mock.lockStop.RUnlock()
	return calls
}
