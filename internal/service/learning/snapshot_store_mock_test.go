package learning

import (
	"context"
	"sync"
)

var _ snapshotStore = &snapshotStoreMock{}

type snapshotStoreMock struct {
	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	RemoveFunc func(ctx context.Context, key string) error
	SetFunc    func(ctx context.Context, key string, value []byte) error

	calls struct {
		Get []struct {
			Ctx context.Context
			Key string
		}
		Remove []struct {
			Ctx context.Context
			Key string
		}
		Set []struct {
			Ctx   context.Context
			Key   string
			Value []byte
		}
	}
	lockGet    sync.RWMutex
	lockRemove sync.RWMutex
	lockSet    sync.RWMutex
}

func (mock *snapshotStoreMock) Get(ctx context.Context, key string) ([]byte, error) {
	if mock.GetFunc == nil {
		panic("snapshotStoreMock.GetFunc: method is nil but snapshotStore.Get was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
	}{Ctx: ctx, Key: key}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, key)
}

func (mock *snapshotStoreMock) GetCalls() []struct {
	Ctx context.Context
	Key string
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *snapshotStoreMock) Remove(ctx context.Context, key string) error {
	if mock.RemoveFunc == nil {
		panic("snapshotStoreMock.RemoveFunc: method is nil but snapshotStore.Remove was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
	}{Ctx: ctx, Key: key}
	mock.lockRemove.Lock()
	mock.calls.Remove = append(mock.calls.Remove, callInfo)
	mock.lockRemove.Unlock()
	return mock.RemoveFunc(ctx, key)
}

func (mock *snapshotStoreMock) RemoveCalls() []struct {
	Ctx context.Context
	Key string
} {
	mock.lockRemove.RLock()
	calls := mock.calls.Remove
	mock.lockRemove.RUnlock()
	return calls
}

func (mock *snapshotStoreMock) Set(ctx context.Context, key string, value []byte) error {
	if mock.SetFunc == nil {
		panic("snapshotStoreMock.SetFunc: method is nil but snapshotStore.Set was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Key   string
		Value []byte
	}{Ctx: ctx, Key: key, Value: value}
	mock.lockSet.Lock()
	mock.calls.Set = append(mock.calls.Set, callInfo)
	mock.lockSet.Unlock()
	return mock.SetFunc(ctx, key, value)
}

func (mock *snapshotStoreMock) SetCalls() []struct {
	Ctx   context.Context
	Key   string
	Value []byte
} {
	mock.lockSet.RLock()
	calls := mock.calls.Set
	mock.lockSet.RUnlock()
	return calls
}
