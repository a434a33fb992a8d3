// Package backoff computes the waits between attempts to take a busy lock.
//
// A Policy grows a base interval with the attempt count, adds uniformly
// distributed jitter and clamps the result to MaxWait. A retry sequence is
// bounded by MaxAttempts, MaxElapsed or both.
//
//	p := backoff.Default()
//	p.MaxAttempts = 3
//	s := p.Start()
//	for {
//	    if tryOnce() {
//	        break
//	    }
//	    s.Record()
//	    if p.Exhausted(s) {
//	        return errGaveUp
//	    }
//	    p.Wait(p.NextWait(s))
//	}
package backoff

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Growth selects how the base interval grows with the attempt count.
type Growth string

const (
	Constant    Growth = "constant"
	Linear      Growth = "linear"
	Exponential Growth = "exponential"
)

const (
	DefaultBaseInterval = 50 * time.Millisecond
	DefaultJitter       = 50 * time.Millisecond
	DefaultMaxWait      = 1 * time.Second
	DefaultMaxAttempts  = 20
)

// JitterSource yields random values in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type JitterSource interface {
	Int64N(n int64) int64
}

type globalSource struct{}

func (globalSource) Int64N(n int64) int64 {
	return rand.Int64N(n)
}

// NewSeededSource returns a reproducible source. It is not safe for
// concurrent use.
func NewSeededSource(seed uint64) JitterSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Policy describes a bounded retry schedule.
type Policy struct {
	BaseInterval time.Duration `yaml:"base_interval"`
	Growth       Growth        `yaml:"growth"`
	Jitter       time.Duration `yaml:"jitter"`
	MaxWait      time.Duration `yaml:"max_wait"`
	MaxAttempts  int           `yaml:"max_attempts"`
	MaxElapsed   time.Duration `yaml:"max_elapsed"`

	// Source, Sleep and Now default to the global generator, time.Sleep and
	// time.Now.
	Source JitterSource          `yaml:"-"`
	Sleep  func(d time.Duration) `yaml:"-"`
	Now    func() time.Time      `yaml:"-"`
}

// State tracks one retry sequence.
type State struct {
	Attempt int
	Started time.Time
}

// Default returns a capped exponential policy suitable for plugin lock files.
func Default() *Policy {
	return &Policy{
		BaseInterval: DefaultBaseInterval,
		Growth:       Exponential,
		Jitter:       DefaultJitter,
		MaxWait:      DefaultMaxWait,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Validate reports configuration that would produce an unbounded or
// nonsensical schedule.
func (p *Policy) Validate() error {
	var errs []error
	if p.BaseInterval < 0 {
		errs = append(errs, fmt.Errorf("base_interval must not be negative, got %s", p.BaseInterval))
	}
	if p.Jitter < 0 {
		errs = append(errs, fmt.Errorf("jitter must not be negative, got %s", p.Jitter))
	}
	if p.MaxWait <= 0 {
		errs = append(errs, fmt.Errorf("max_wait must be positive, got %s", p.MaxWait))
	}
	if p.MaxAttempts < 0 || p.MaxElapsed < 0 {
		errs = append(errs, errors.New("max_attempts and max_elapsed must not be negative"))
	}
	if p.MaxAttempts == 0 && p.MaxElapsed == 0 {
		errs = append(errs, errors.New("one of max_attempts or max_elapsed is required"))
	}
	switch p.Growth {
	case "", Constant, Linear, Exponential:
	default:
		errs = append(errs, fmt.Errorf("unknown growth %q", p.Growth))
	}
	return errors.Join(errs...)
}

// Start begins a new retry sequence.
func (p *Policy) Start() *State {
	return &State{Started: p.now()}
}

// Record counts a failed attempt.
func (s *State) Record() {
	s.Attempt++
}

// NextWait returns how long to wait after s.Attempt failed attempts.
func (p *Policy) NextWait(s *State) time.Duration {
	ceiling := p.ceiling()
	wait := p.grown(s.Attempt, ceiling)
	if p.Jitter > 0 && wait < ceiling {
		wait += time.Duration(p.source().Int64N(int64(p.Jitter) + 1))
	}
	return min(wait, ceiling)
}

// Exhausted reports whether no further attempt should be made.
func (p *Policy) Exhausted(s *State) bool {
	if p.MaxAttempts > 0 && s.Attempt >= p.MaxAttempts {
		return true
	}
	if p.MaxElapsed > 0 && p.now().Sub(s.Started) >= p.MaxElapsed {
		return true
	}
	return p.MaxAttempts <= 0 && p.MaxElapsed <= 0 && s.Attempt >= DefaultMaxAttempts
}

// Wait sleeps for d using the configured sleeper.
func (p *Policy) Wait(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (p *Policy) grown(attempt int, ceiling time.Duration) time.Duration {
	base := max(p.BaseInterval, 0)
	if attempt < 1 {
		attempt = 1
	}
	switch p.Growth {
	case Linear:
		if base > 0 && time.Duration(attempt) > ceiling/base {
			return ceiling
		}
		return base * time.Duration(attempt)
	case Exponential, "":
		wait := base
		for i := 1; i < attempt && wait > 0 && wait < ceiling; i++ {
			if wait > ceiling/2 {
				return ceiling
			}
			wait *= 2
		}
		return min(wait, ceiling)
	default:
		return min(base, ceiling)
	}
}

func (p *Policy) ceiling() time.Duration {
	if p.MaxWait <= 0 {
		return DefaultMaxWait
	}
	return p.MaxWait
}

func (p *Policy) source() JitterSource {
	if p.Source != nil {
		return p.Source
	}
	return globalSource{}
}

func (p *Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
