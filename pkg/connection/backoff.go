package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Backoff defaults.
const (
	// InitialBackoff is the default delay before the first redial.
	InitialBackoff = 1 * time.Second

	// MaxBackoff is the default delay cap.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the factor by which the delay grows.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the base delay.
	JitterFactor = 0.25
)

// BackoffConfig configures a Backoff. Zero fields select the defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter is the jitter fraction. Zero selects JitterFactor; negative
	// disables jitter.
	Jitter float64

	// MaxAttempts bounds Next; 0 means unlimited.
	MaxAttempts int
}

// Backoff calculates exponential redial delays with jitter.
type Backoff struct {
	mu sync.Mutex

	current     time.Duration
	initial     time.Duration
	max         time.Duration
	multiplier  float64
	jitter      float64
	maxAttempts int
	attempts    int

	rng *rand.Rand
}

// NewBackoff creates a backoff calculator.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	switch {
	case cfg.Jitter == 0:
		cfg.Jitter = JitterFactor
	case cfg.Jitter < 0:
		cfg.Jitter = 0
	}

	return &Backoff{
		current:     cfg.Initial,
		initial:     cfg.Initial,
		max:         cfg.Max,
		multiplier:  cfg.Multiplier,
		jitter:      cfg.Jitter,
		maxAttempts: cfg.MaxAttempts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay (with jitter) and advances the backoff.
// ok is false once MaxAttempts delays were handed out since the last Reset.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxAttempts > 0 && b.attempts >= b.maxAttempts {
		return 0, false
	}

	delay = b.addJitter(b.current)
	b.attempts++
	b.current = min(time.Duration(float64(b.current)*b.multiplier), b.max)
	return delay, true
}

// Reset returns to the initial delay. Call it after a successful dial.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the next base delay (without jitter).
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}
