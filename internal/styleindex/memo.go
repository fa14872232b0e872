package styleindex

// Memo caches one derived value under a content key.
// Get rebuilds only when the key changes or after Invalidate.
type Memo[T any] struct {
	key    string
	value  T
	valid  bool
	builds int
}

// Get returns the cached value for key, calling build on a miss.
func (m *Memo[T]) Get(key string, build func() T) T {
	if m.valid && m.key == key {
		return m.value
	}
	m.value = build()
	m.key = key
	m.valid = true
	m.builds++
	return m.value
}

// Peek returns the cached value and whether one is present.
func (m *Memo[T]) Peek() (T, bool) {
	return m.value, m.valid
}

// Key returns the key of the cached value.
func (m *Memo[T]) Key() string {
	return m.key
}

// Invalidate drops the cached value so the next Get rebuilds.
func (m *Memo[T]) Invalidate() {
	var zero T
	m.value = zero
	m.key = ""
	m.valid = false
}

// Builds returns how many times the value has been built.
func (m *Memo[T]) Builds() int {
	return m.builds
}
