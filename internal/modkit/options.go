package modkit

import "net/http"

// Option adjusts how a module is built
type Option func(*Built)

// WithName names the module in logs and the port registry
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPrefix mounts the module's routes under prefix
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = prefix }
}

// WithMiddlewares appends middleware wrapped around the module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects the collaborators the module requires. Each module
// documents the concrete type it expects
func WithPorts(p any) Option {
	return func(b *Built) { b.Ports = p }
}
