package repository

import "github.com/jonboulle/clockwork"

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of lock shards. Values below 1 are ignored.
func WithShardCount(n int) Option {
	return func(s *ShardedStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithClock sets the clock used for CreatedAt and UpdatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(s *ShardedStore) {
		if c != nil {
			s.clock = c
		}
	}
}
