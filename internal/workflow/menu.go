package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-gpslogger/internal/record"
)

// CaptureState tracks the permission/fetch state machine of the menu
// workflow.
type CaptureState int

const (
	StateReady CaptureState = iota
	StatePermissionRequested
	StatePermissionDenied
	StateFetching
	StateObtained
	StateUnavailable
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// Menu orchestrates a single-sample capture (permission check, location
// fetch, store write) and maintains the live coordinate list from
// subscription snapshots.
type Menu struct {
	location LocationGateway
	store    StoreGateway
	session  *Session
	now      func() time.Time

	mu        sync.Mutex
	state     CaptureState
	records   []record.Record
	cancelSub context.CancelFunc
	subDone   chan struct{}
}

func NewMenu(location LocationGateway, store StoreGateway, session *Session) *Menu {
	return &Menu{
		location: location,
		store:    store,
		session:  session,
		now:      time.Now,
		state:    StateReady,
	}
}

// Capture runs permission check, location fetch and store write for one
// sample. The fetch is never attempted while permission is denied, and the
// write is only issued after a non-nil fix. A failed write loses the
// sample: there is no queue and no retry.
func (m *Menu) Capture(ctx context.Context) (record.Record, string, error) {
	if !m.location.PermissionGranted(ctx) {
		m.setState(StatePermissionRequested)
		granted, err := m.location.RequestPermission(ctx)
		if err != nil {
			m.setState(StateReady)
			return record.Record{}, "", err
		}
		if !granted {
			m.setState(StatePermissionDenied)
			return record.Record{}, "", ErrPermissionDenied
		}
	}

	m.setState(StateFetching)
	pos, err := m.location.LastKnown(ctx)
	if err != nil {
		m.setState(StateReady)
		return record.Record{}, "", err
	}
	if pos == nil {
		// no cached fix; ready again for a retry on the next press
		m.setState(StateUnavailable)
		return record.Record{}, "", ErrLocationUnavailable
	}

	// the timestamp reflects retrieval time, not the time of the fix
	rec := record.New(pos.Latitude, pos.Longitude, m.now())
	m.setState(StateObtained)

	key, err := m.store.Append(ctx, m.session.UserID(), rec)
	if err != nil {
		return rec, "", fmt.Errorf("store write: %w", err)
	}
	return rec, key, nil
}

// Enter establishes the live subscription for the current user's
// partition. Every notification, the initial snapshot included, fully
// replaces the record list. Subscription errors are logged for diagnostics
// only; the list keeps its last value.
func (m *Menu) Enter(ctx context.Context) error {
	m.Leave()

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := m.store.Subscribe(subCtx, m.session.UserID())
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.cancelSub = cancel
	m.subDone = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		snapshots, errs := sub.Snapshots, sub.Errs
		for snapshots != nil || errs != nil {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				m.replaceRecords(record.ParseChildren(snap))
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					log.Printf("coordinate subscription error: %v", err)
				}
			case <-subCtx.Done():
				return
			}
		}
	}()
	return nil
}

// Leave releases the subscription deterministically and waits for its
// reader to stop. Safe to call without an active subscription.
func (m *Menu) Leave() {
	m.mu.Lock()
	cancel, done := m.cancelSub, m.subDone
	m.cancelSub, m.subDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Records returns the last rendered list, in store order.
func (m *Menu) Records() []record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]record.Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Menu) State() CaptureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Menu) replaceRecords(records []record.Record) {
	m.mu.Lock()
	m.records = records
	m.mu.Unlock()
}

func (m *Menu) setState(state CaptureState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}
