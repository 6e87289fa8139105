package frecency

import "time"

// Settings are the knobs shared by every storage design.
type Settings struct {
	Now      func() time.Time
	HalfLife time.Duration
	Match    Matcher
}

type Option func(*Settings)

// WithClock replaces time.Now. Tests use it to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Settings) { s.Now = now }
}

// WithHalfLife sets the half life used when a database is first created.
// A persisted database keeps the half life it was created with.
func WithHalfLife(d time.Duration) Option {
	return func(s *Settings) {
		if d > 0 {
			s.HalfLife = d
		}
	}
}

func WithMatcher(m Matcher) Option {
	return func(s *Settings) { s.Match = m }
}

func Configure(opts ...Option) Settings {
	s := Settings{
		Now:      time.Now,
		HalfLife: DefaultHalfLife,
		Match:    FuzzyMatch,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
