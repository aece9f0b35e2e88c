package typecast

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Field describes the column a value is being decoded for.
type Field struct {
	// Name is the column label as reported by the server.
	Name string
	// Type is the database type name (e.g. "DATETIME", "NUMERIC").
	Type      string
	Precision int
	Scale     int
	Nullable  bool
}

// Options carries per-dialect decoding context handed to every DecodeFunc.
type Options struct {
	// Location is the zone naive date/time values are interpreted in. Nil means UTC.
	Location *time.Location
	// DecimalNumbers returns DECIMAL/NUMERIC columns as float64 instead of strings.
	DecimalNumbers bool
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Fallback produces the transport's default decoding for the current value.
type Fallback func() (any, error)

// DecodeFunc converts a raw column value into a Go value.
// Implementations obtain the raw value by calling fallback.
type DecodeFunc func(field Field, opts Options, fallback Fallback) (any, error)

// Registry maps type identifiers to decode functions.
//
// Lookups read an immutable snapshot and never lock. Refresh and Clear build a
// new snapshot and publish it atomically, so a concurrent lookup observes
// either the previous or the next function for a type, never a partial update.
type Registry struct {
	mu      sync.Mutex
	parsers atomic.Pointer[map[string]DecodeFunc]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]DecodeFunc{}
	r.parsers.Store(&empty)
	return r
}

func normalize(typeID string) string {
	return strings.ToUpper(strings.TrimSpace(typeID))
}

// Refresh installs or overrides the decode function for typeID. Last write
// wins. A nil fn is ignored: entries only go away through Clear.
func (r *Registry) Refresh(typeID string, fn DecodeFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.parsers.Load()
	next := make(map[string]DecodeFunc, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[normalize(typeID)] = fn
	r.parsers.Store(&next)
}

// Install refreshes every entry of set in a single swap. Nil entries are
// ignored, as in Refresh.
func (r *Registry) Install(set map[string]DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.parsers.Load()
	next := make(map[string]DecodeFunc, len(cur)+len(set))
	for k, v := range cur {
		next[k] = v
	}
	for k, v := range set {
		if v != nil {
			next[normalize(k)] = v
		}
	}
	r.parsers.Store(&next)
}

// Clear removes every registered decode function at once.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	empty := map[string]DecodeFunc{}
	r.parsers.Store(&empty)
}

// Lookup returns the decode function registered for typeID.
func (r *Registry) Lookup(typeID string) (DecodeFunc, bool) {
	fn, ok := (*r.parsers.Load())[normalize(typeID)]
	return fn, ok
}

// Len reports the number of registered types.
func (r *Registry) Len() int {
	return len(*r.parsers.Load())
}

// Typecast decodes one value for field. A registered decode function for
// field.Type receives (field, opts, fallback); otherwise fallback is used as is.
func (r *Registry) Typecast(field Field, opts Options, fallback Fallback) (any, error) {
	if fn, ok := r.Lookup(field.Type); ok {
		return fn(field, opts, fallback)
	}
	return fallback()
}
