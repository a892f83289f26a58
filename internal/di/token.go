package di

// Token names a service and carries its Go type.
type Token[T any] struct {
	name string
}

// NewToken creates a token. Names are conventionally "context.Service" for
// public services and "context:service" for module-private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a lazy factory under the token.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token with its static type.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	return sr.Get(tok.name).(T)
}
