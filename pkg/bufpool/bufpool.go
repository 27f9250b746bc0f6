// Package bufpool provides a tiered buffer pool for request-scoped scratch
// memory.
//
// The SMB handlers borrow a scratch buffer for every path string they
// decode and return it before the response is sent. The pool keeps three
// size classes so that short names, long paths and whole request bodies
// each reuse a buffer of roughly the right size:
//   - Name buffers (default 1KB): a single path component or short path
//   - Path buffers (default 16KB): deep paths
//   - Request buffers (default 192KB): the transcoded worst case of a
//     64KB SMB1 data block
//
// Larger requests are allocated directly and never pooled.
//
// The pool counts buffers handed out and returned so that callers (and
// their tests) can verify every Get is matched by a Put.
//
// # Usage
//
//	buf := bufpool.GetName(len(raw))
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Default buffer size classes.
const (
	DefaultNameSize    = 1 << 10
	DefaultPathSize    = 16 << 10
	DefaultRequestSize = 192 << 10
)

// MaxUTF8Expansion is the worst-case growth when transcoding an SMB string
// (OEM or UTF-16LE) to UTF-8: three output bytes per input byte.
const MaxUTF8Expansion = 3

// Config holds the size classes of a Pool. Zero values take the defaults.
type Config struct {
	NameSize    int `mapstructure:"name_size" yaml:"name_size"`
	PathSize    int `mapstructure:"path_size" yaml:"path_size"`
	RequestSize int `mapstructure:"request_size" yaml:"request_size"`
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		NameSize:    DefaultNameSize,
		PathSize:    DefaultPathSize,
		RequestSize: DefaultRequestSize,
	}
}

type tier struct {
	size int
	pool sync.Pool
}

// Stats is a snapshot of pool usage.
type Stats struct {
	// Gets counts buffers handed out, pooled or not.
	Gets uint64
	// Puts counts buffers returned, including ones too large to keep.
	Puts uint64
	// Outstanding is Gets minus Puts.
	Outstanding int64
}

// Pool manages byte slices organized by size class.
type Pool struct {
	tiers []*tier
	gets  atomic.Uint64
	puts  atomic.Uint64
}

// NewPool creates a pool. A nil config uses the defaults.
func NewPool(cfg *Config) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.NameSize > 0 {
			c.NameSize = cfg.NameSize
		}
		if cfg.PathSize > 0 {
			c.PathSize = cfg.PathSize
		}
		if cfg.RequestSize > 0 {
			c.RequestSize = cfg.RequestSize
		}
	}

	p := &Pool{}
	for _, size := range []int{c.NameSize, c.PathSize, c.RequestSize} {
		t := &tier{size: size}
		t.pool.New = func() any {
			buf := make([]byte, t.size)
			return &buf
		}
		p.tiers = append(p.tiers, t)
	}
	return p
}

// Get returns a slice of length size. Its capacity is the size class that
// served it, or exactly size for oversized requests.
func (p *Pool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	p.gets.Add(1)
	for _, t := range p.tiers {
		if size <= t.size {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// GetName returns a scratch buffer large enough to hold encodedLen bytes
// of SMB string data once transcoded to UTF-8.
func (p *Pool) GetName(encodedLen int) []byte {
	return p.Get(encodedLen * MaxUTF8Expansion)
}

// Put returns a buffer obtained from Get. Buffers whose capacity does not
// match a size class are dropped. Put(nil) is a no-op and is not counted.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	for _, t := range p.tiers {
		if cap(buf) == t.size {
			full := buf[:cap(buf)]
			t.pool.Put(&full)
			return
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	gets, puts := p.gets.Load(), p.puts.Load()
	return Stats{Gets: gets, Puts: puts, Outstanding: int64(gets) - int64(puts)}
}

// =============================================================================
// Global Pool
// =============================================================================

var globalPool = NewPool(nil)

// Default returns the package-level pool.
func Default() *Pool {
	return globalPool
}

// Get returns a buffer from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// GetName returns a name scratch buffer from the global pool.
func GetName(encodedLen int) []byte {
	return globalPool.GetName(encodedLen)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
