package orchestrator

import (
	"errors"
	"sync/atomic"
)

// State is the lifecycle of the orchestrator
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAlreadyRunning is returned by Start while a crawl is in progress
var ErrAlreadyRunning = errors.New("crawl already running")

// Counts is the number of records collected below one branch
type Counts struct {
	Models      int
	Generations int
	Cars        int
}

// Add returns the element-wise sum of c and o
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Models:      c.Models + o.Models,
		Generations: c.Generations + o.Generations,
		Cars:        c.Cars + o.Cars,
	}
}

// AmountSummary is the number of records collected per level
type AmountSummary struct {
	Brands      int `json:"brands"`
	Models      int `json:"models"`
	Generations int `json:"gen"`
	Cars        int `json:"cars"`
}

// Progress counts records as they are extracted so a running crawl can be observed
type Progress struct {
	brands      atomic.Int64
	models      atomic.Int64
	generations atomic.Int64
	cars        atomic.Int64
}

func (p *Progress) reset() {
	p.brands.Store(0)
	p.models.Store(0)
	p.generations.Store(0)
	p.cars.Store(0)
}

// Snapshot returns the current counters
func (p *Progress) Snapshot() AmountSummary {
	return AmountSummary{
		Brands:      int(p.brands.Load()),
		Models:      int(p.models.Load()),
		Generations: int(p.generations.Load()),
		Cars:        int(p.cars.Load()),
	}
}

// lifecycle holds a State that can be read and swapped concurrently
type lifecycle struct {
	v atomic.Int32
}

func (l *lifecycle) Load() State {
	return State(l.v.Load())
}

func (l *lifecycle) Store(s State) {
	l.v.Store(int32(s))
}

// begin moves to StateRunning unless a crawl is already running
func (l *lifecycle) begin() bool {
	for {
		current := l.v.Load()
		if State(current) == StateRunning {
			return false
		}
		if l.v.CompareAndSwap(current, int32(StateRunning)) {
			return true
		}
	}
}
