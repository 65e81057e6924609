// Package options provides a small generic functional-option helper shared
// by the configuration surfaces of this module (reader options).
package options

// Option configures a target of type T, returning an error if the
// configuration is invalid.
type Option[T any] interface {
	apply(T) error
}

// Func wraps a plain function as an Option.
type Func[T any] struct {
	applyFunc func(T) error
}

// apply implements Option.
func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an Option from a function that may fail.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an Option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies opts to target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
