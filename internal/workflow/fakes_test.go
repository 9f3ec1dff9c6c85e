package workflow

import (
	"context"
	"sync"

	"backend-gpslogger/internal/record"
)

type fakeAuth struct {
	mu           sync.Mutex
	userID       string
	signInErr    error
	signOutErr   error
	signInCalls  int
	signOuts     int
	lastEmail    string
	lastPassword string
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	f.lastEmail = email
	f.lastPassword = password
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.userID, nil
}

func (f *fakeAuth) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

type fakeLocation struct {
	mu            sync.Mutex
	granted       bool
	requestGrant  bool
	requestErr    error
	pos           *Position
	posErr        error
	requestCalls  int
	lastKnownCall int
}

func (f *fakeLocation) PermissionGranted(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted
}

func (f *fakeLocation) RequestPermission(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.requestErr != nil {
		return false, f.requestErr
	}
	if f.requestGrant {
		f.granted = true
	}
	return f.requestGrant, nil
}

func (f *fakeLocation) LastKnown(_ context.Context) (*Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKnownCall++
	return f.pos, f.posErr
}

type appended struct {
	userID string
	rec    record.Record
}

type fakeStore struct {
	mu        sync.Mutex
	appendKey string
	appendErr error
	appends   []appended

	subErr    error
	subUser   string
	snapshots chan []record.Payload
	errs      chan error
	subCtx    context.Context
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appendKey: "child-1",
		snapshots: make(chan []record.Payload, 4),
		errs:      make(chan error, 4),
	}
}

func (f *fakeStore) Append(_ context.Context, userID string, rec record.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appends = append(f.appends, appended{userID: userID, rec: rec})
	return f.appendKey, nil
}

func (f *fakeStore) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return Subscription{}, f.subErr
	}
	f.subUser = userID
	f.subCtx = ctx
	return Subscription{Snapshots: f.snapshots, Errs: f.errs}, nil
}

func (f *fakeStore) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends)
}
