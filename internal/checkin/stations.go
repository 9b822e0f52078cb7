package checkin

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxStations    = 512
	DefaultStationIdleTTL = 12 * time.Hour
)

var ErrInvalidDevice = errors.New("device id must be 1-64 characters")

// Stations keeps one Workflow per scanning device. Devices idle longer than
// the TTL, or least recently used past the size limit, are forgotten and
// start over in Idle on their next request.
type Stations struct {
	factory func() *Workflow

	mu        sync.Mutex
	workflows *expirable.LRU[string, *Workflow]
}

// NewStations bounds the registry to size devices, each idle at most idle.
// Non-positive values take the defaults.
func NewStations(factory func() *Workflow, size int, idle time.Duration) *Stations {
	if size <= 0 {
		size = DefaultMaxStations
	}
	if idle <= 0 {
		idle = DefaultStationIdleTTL
	}
	return &Stations{
		factory:   factory,
		workflows: expirable.NewLRU[string, *Workflow](size, nil, idle),
	}
}

// Get returns the workflow for device, creating it on first use. Every call
// renews the device's idle deadline.
func (s *Stations) Get(device string) (*Workflow, error) {
	if device == "" || len(device) > 64 {
		return nil, ErrInvalidDevice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workflows.Get(device)
	if !ok {
		w = s.factory()
	}
	s.workflows.Add(device, w)
	return w, nil
}

func (s *Stations) Len() int {
	return s.workflows.Len()
}
