package repository

import "time"

// Option applies a configuration option to a CSVSource.
type Option func(*CSVSource)

// WithDateLayouts overrides the accepted date layouts, tried in order.
func WithDateLayouts(layouts ...string) Option {
	return func(s *CSVSource) {
		if len(layouts) > 0 {
			s.dateLayouts = layouts
		}
	}
}

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(s *CSVSource) {
		if r != 0 {
			s.comma = r
		}
	}
}

// PoolConfig tunes the SQL connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}
