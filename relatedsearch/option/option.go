package option

// Option holds a value that may be absent. Virtual attribute reads return it to tell
// "no such attribute" apart from an attribute holding nil.
type Option[T any] struct {
	value   T
	present bool
}

func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

func Nothing[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) IsSome() bool    { return o.present }
func (o Option[T]) IsNothing() bool { return !o.present }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// Unwrap panics on Nothing.
func (o Option[T]) Unwrap() T {
	if !o.present {
		panic("option: value is absent")
	}
	return o.value
}

func (o Option[T]) UnwrapOr(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}
