package state

import (
	stderrors "errors"
	"log/slog"
	"sort"

	"github.com/vango-dev/weft/internal/errors"
)

// Change describes a stored value replaced by Set.
type Change struct {
	Key   string
	Value any
	Old   any
}

// Store is a per-component reactive state store. It is not safe for
// concurrent use.
type Store struct {
	raw     map[string]any
	defined map[string]Descriptor
	tracked map[string]struct{}

	rendering int

	onChange     []func(Change)
	onInvalidate []func(key string)

	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		raw:     make(map[string]any),
		defined: make(map[string]Descriptor),
		tracked: make(map[string]struct{}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Define declares keys and initialises their values. Keys that are already
// declared are left untouched.
func (s *Store) Define(schema Schema) {
	for key, d := range schema {
		if _, exists := s.defined[key]; exists {
			continue
		}
		s.defined[key] = d
		if !d.IsComputed() {
			s.raw[key] = d.zero()
		}
	}
}

// Descriptor returns the descriptor declared for key.
func (s *Store) Descriptor(key string) (Descriptor, bool) {
	d, ok := s.defined[key]
	return d, ok
}

// Keys returns every declared key, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.defined))
	for k := range s.defined {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key, or nil if it is not declared. Inside a render
// pass the key is tracked.
func (s *Store) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Lookup is Get with an explicit declared flag.
func (s *Store) Lookup(key string) (any, bool) {
	d, ok := s.defined[key]
	if !ok {
		return nil, false
	}
	if s.rendering > 0 {
		s.tracked[key] = struct{}{}
	}
	if d.IsComputed() {
		return d.Computed(s), true
	}
	return s.raw[key], true
}

// Peek returns the value of key without tracking it.
func (s *Store) Peek(key string) any {
	d, ok := s.defined[key]
	if !ok {
		return nil
	}
	if d.IsComputed() {
		return d.Computed(peeker{s})
	}
	return s.raw[key]
}

// peeker lets computed accessors evaluated by Peek read without tracking.
type peeker struct{ s *Store }

func (p peeker) Get(key string) any { return p.s.Peek(key) }

// Set writes key. Writing an undeclared key is logged and ignored; writing an
// equal value is a no-op. A changed value notifies change listeners and, if
// key was read during the last render, invalidation listeners.
func (s *Store) Set(key string, value any) error {
	d, ok := s.defined[key]
	if !ok {
		err := errors.New(errors.CodeUndeclaredStateKey).
			WithDetailf("state key %q is not declared", key).
			WithField("key", key)
		s.logger.Warn("undeclared state key", "key", key)
		return err
	}
	if d.IsComputed() {
		return errors.New(errors.CodeComputedStateKey).
			WithDetailf("state key %q is computed", key).
			WithField("key", key)
	}

	v, err := d.coerce(value)
	if err != nil {
		s.logger.Warn("invalid state value", "key", key, "error", err)
		return errors.New(errors.CodeInvalidStateValue).
			WithDetailf("state key %q", key).
			WithField("key", key).
			Wrap(err)
	}

	old := s.raw[key]
	if equal(old, v) {
		return nil
	}
	s.raw[key] = v

	change := Change{Key: key, Value: v, Old: old}
	for _, fn := range s.onChange {
		fn(change)
	}
	if _, tracked := s.tracked[key]; tracked {
		for _, fn := range s.onInvalidate {
			fn(key)
		}
	}
	return nil
}

// SetMany writes several keys. Every key is attempted; the returned error
// joins the individual failures.
func (s *Store) SetMany(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := s.Set(k, values[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Snapshot returns the current value of every declared key without tracking.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.defined))
	for k := range s.defined {
		out[k] = s.Peek(k)
	}
	return out
}

// BeginRender starts a render pass: the tracked set is cleared and reads are
// recorded until EndRender. Passes nest.
func (s *Store) BeginRender() {
	if s.rendering == 0 {
		s.ResetTracking()
	}
	s.rendering++
}

// EndRender ends the render pass started by BeginRender.
func (s *Store) EndRender() {
	if s.rendering > 0 {
		s.rendering--
	}
}

// Rendering reports whether a render pass is active.
func (s *Store) Rendering() bool {
	return s.rendering > 0
}

// ResetTracking clears the tracked set.
func (s *Store) ResetTracking() {
	clear(s.tracked)
}

// Tracked returns the keys read during the current or most recent render
// pass, sorted.
func (s *Store) Tracked() []string {
	keys := make([]string, 0, len(s.tracked))
	for k := range s.tracked {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsTracked reports whether key was read during the last render pass.
func (s *Store) IsTracked(key string) bool {
	_, ok := s.tracked[key]
	return ok
}

// OnChange registers a listener called for every stored change.
func (s *Store) OnChange(fn func(Change)) {
	s.onChange = append(s.onChange, fn)
}

// OnInvalidate registers a listener called when a tracked key changes.
func (s *Store) OnInvalidate(fn func(key string)) {
	s.onInvalidate = append(s.onInvalidate, fn)
}

// Value returns key's value as T, or T's zero value when the key is
// undeclared or holds another type. Tracking applies as for Get.
func Value[T any](s *Store, key string) T {
	v, _ := s.Get(key).(T)
	return v
}
