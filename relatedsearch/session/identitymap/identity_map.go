package identitymap

// Key identifies one instance of V. Key structs embed KeyOf[V] and must be comparable.
type Key[V any] interface {
	keyOf(*V)
}

// KeyOf binds an embedding key struct to the value type it identifies.
type KeyOf[V any] struct{}

func (KeyOf[V]) keyOf(*V) {}

// IdentityMap keeps one instance per key, so a row reached several times while hydrating
// one result set is materialized once. A map lives as long as the query that fills it.
type IdentityMap struct {
	objects map[any]any
}

func New() *IdentityMap {
	return &IdentityMap{objects: map[any]any{}}
}

func (m *IdentityMap) Clear() {
	clear(m.objects)
}

func (m *IdentityMap) Len() int {
	return len(m.objects)
}

func Add[V any](m *IdentityMap, key Key[V], value V) {
	m.objects[key] = value
}

func Get[V any](m *IdentityMap, key Key[V]) (V, error) {
	value, ok := m.objects[key]
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return value.(V), nil
}

// GetOrAdd returns the instance stored under key, storing create() first when absent.
// The boolean reports whether the instance already existed.
func GetOrAdd[V any](m *IdentityMap, key Key[V], create func() V) (V, bool) {
	if value, ok := m.objects[key]; ok {
		return value.(V), true
	}
	value := create()
	m.objects[key] = value
	return value, false
}

func Has[V any](m *IdentityMap, key Key[V]) bool {
	_, ok := m.objects[key]
	return ok
}

func Remove[V any](m *IdentityMap, key Key[V]) {
	delete(m.objects, key)
}
