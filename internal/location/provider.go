package location

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"backend-gpslogger/internal/config"
	"backend-gpslogger/internal/workflow"
)

// PermissionRequester mediates the user-facing permission prompt. The
// request blocks until the user answers or the context is cancelled.
type PermissionRequester interface {
	Request(ctx context.Context) (bool, error)
}

// FixedProvider serves the device's configured last-known position. A
// provider without a fix reports nil from LastKnown, the cached-fix-absent
// case.
type FixedProvider struct {
	requester PermissionRequester

	mu      sync.Mutex
	granted bool
	pos     *workflow.Position
}

func NewFixedProvider(pos *workflow.Position, granted bool, requester PermissionRequester) *FixedProvider {
	return &FixedProvider{pos: pos, granted: granted, requester: requester}
}

// NewFromConfig builds the provider from DEVICE_* settings.
func NewFromConfig(cfg config.Config, requester PermissionRequester) *FixedProvider {
	var pos *workflow.Position
	if cfg.DeviceHasFix {
		pos = &workflow.Position{Latitude: cfg.DeviceLat, Longitude: cfg.DeviceLng}
	}
	return NewFixedProvider(pos, cfg.LocationGranted, requester)
}

func (p *FixedProvider) PermissionGranted(_ context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

// RequestPermission prompts through the requester. A grant is remembered,
// a denial is not: the next request prompts again.
func (p *FixedProvider) RequestPermission(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.granted {
		p.mu.Unlock()
		return true, nil
	}
	requester := p.requester
	p.mu.Unlock()

	if requester == nil {
		return false, nil
	}

	granted, err := requester.Request(ctx)
	if err != nil {
		return false, err
	}
	if granted {
		p.mu.Lock()
		p.granted = true
		p.mu.Unlock()
	}
	return granted, nil
}

func (p *FixedProvider) LastKnown(_ context.Context) (*workflow.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos == nil {
		return nil, nil
	}
	pos := *p.pos
	return &pos, nil
}

// SetPosition updates the device fix; nil clears it.
func (p *FixedProvider) SetPosition(pos *workflow.Position) {
	p.mu.Lock()
	p.pos = pos
	p.mu.Unlock()
}

// PromptRequester asks for the grant on a terminal, standing in for the OS
// permission dialog. It waits indefinitely unless the context is
// cancelled.
type PromptRequester struct {
	In  io.Reader
	Out io.Writer
}

func (r *PromptRequester) Request(ctx context.Context) (bool, error) {
	fmt.Fprint(r.Out, "Allow access to device location? [y/N]: ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(r.In).ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case a := <-ch:
		if a.err != nil && a.line == "" {
			return false, a.err
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes", nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
