package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	values []int64
	calls  int
}

func (f *fixedSource) Int64N(n int64) int64 {
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v % n
}

func TestNextWaitNeverExceedsCeiling(t *testing.T) {
	policies := map[string]*Policy{
		"Exponential": {BaseInterval: 10 * time.Millisecond, Growth: Exponential, Jitter: 20 * time.Millisecond, MaxWait: 500 * time.Millisecond, MaxAttempts: 1},
		"Linear":      {BaseInterval: 7 * time.Millisecond, Growth: Linear, Jitter: 5 * time.Millisecond, MaxWait: 300 * time.Millisecond, MaxAttempts: 1},
		"Constant":    {BaseInterval: time.Second, Growth: Constant, Jitter: time.Second, MaxWait: 1500 * time.Millisecond, MaxAttempts: 1},
		"Huge base":   {BaseInterval: time.Duration(1 << 62), Growth: Exponential, Jitter: time.Hour, MaxWait: time.Minute, MaxAttempts: 1},
	}

	for name, p := range policies {
		t.Run(name, func(t *testing.T) {
			p.Source = NewSeededSource(42)
			s := p.Start()
			for attempt := 1; attempt <= 10000; attempt++ {
				s.Attempt = attempt
				wait := p.NextWait(s)
				require.GreaterOrEqual(t, wait, time.Duration(0))
				require.LessOrEqual(t, wait, p.MaxWait, "attempt %d", attempt)
			}
		})
	}
}

func TestNextWaitGrowth(t *testing.T) {
	tests := []struct {
		name     string
		growth   Growth
		expected []time.Duration
	}{
		{"Constant", Constant, []time.Duration{10, 10, 10, 10}},
		{"Linear", Linear, []time.Duration{10, 20, 30, 40}},
		{"Exponential", Exponential, []time.Duration{10, 20, 40, 80}},
		{"Default growth is exponential", "", []time.Duration{10, 20, 40, 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Policy{
				BaseInterval: 10 * time.Millisecond,
				Growth:       tt.growth,
				MaxWait:      time.Second,
				MaxAttempts:  10,
			}
			s := p.Start()
			for i, want := range tt.expected {
				s.Record()
				require.Equal(t, want*time.Millisecond, p.NextWait(s), "attempt %d", i+1)
			}
		})
	}
}

func TestNextWaitAddsJitterFromSource(t *testing.T) {
	src := &fixedSource{values: []int64{int64(3 * time.Millisecond), int64(7 * time.Millisecond)}}
	p := &Policy{
		BaseInterval: 10 * time.Millisecond,
		Growth:       Constant,
		Jitter:       10 * time.Millisecond,
		MaxWait:      time.Second,
		MaxAttempts:  5,
		Source:       src,
	}
	s := p.Start()
	s.Record()

	require.Equal(t, 13*time.Millisecond, p.NextWait(s))
	require.Equal(t, 17*time.Millisecond, p.NextWait(s))
	require.Equal(t, 2, src.calls)
}

func TestSeededSourceIsReproducible(t *testing.T) {
	mk := func() []time.Duration {
		p := &Policy{BaseInterval: time.Millisecond, Jitter: 100 * time.Millisecond, MaxWait: time.Second, MaxAttempts: 10, Source: NewSeededSource(7)}
		s := p.Start()
		var waits []time.Duration
		for i := 0; i < 10; i++ {
			s.Record()
			waits = append(waits, p.NextWait(s))
		}
		return waits
	}

	require.Equal(t, mk(), mk())
}

func TestExhausted(t *testing.T) {
	t.Run("MaxAttempts", func(t *testing.T) {
		p := &Policy{MaxWait: time.Second, MaxAttempts: 3}
		s := p.Start()
		for i := 0; i < 2; i++ {
			s.Record()
			require.False(t, p.Exhausted(s))
		}
		s.Record()
		require.True(t, p.Exhausted(s))
	})

	t.Run("MaxElapsed", func(t *testing.T) {
		now := time.Unix(1700000000, 0)
		p := &Policy{MaxWait: time.Second, MaxElapsed: 5 * time.Second, Now: func() time.Time { return now }}
		s := p.Start()
		s.Record()
		require.False(t, p.Exhausted(s))

		now = now.Add(5 * time.Second)
		require.True(t, p.Exhausted(s))
	})

	t.Run("Unbounded policy falls back to default attempts", func(t *testing.T) {
		p := &Policy{MaxWait: time.Second}
		s := &State{Attempt: DefaultMaxAttempts}
		require.True(t, p.Exhausted(s))
	})
}

func TestWaitUsesInjectedSleep(t *testing.T) {
	var slept []time.Duration
	p := Default()
	p.Sleep = func(d time.Duration) { slept = append(slept, d) }

	p.Wait(15 * time.Millisecond)
	require.Equal(t, []time.Duration{15 * time.Millisecond}, slept)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"Default", *Default(), false},
		{"Elapsed only", Policy{MaxWait: time.Second, MaxElapsed: time.Minute}, false},
		{"No bound", Policy{MaxWait: time.Second}, true},
		{"No ceiling", Policy{MaxAttempts: 3}, true},
		{"Negative jitter", Policy{MaxWait: time.Second, MaxAttempts: 3, Jitter: -1}, true},
		{"Unknown growth", Policy{MaxWait: time.Second, MaxAttempts: 3, Growth: "fibonacci"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
