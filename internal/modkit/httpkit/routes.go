package httpkit

import (
	"net/http"
	"path"
	"reflect"

	"flexcode/internal/modkit/swaggerkit"
	"flexcode/internal/platform/net/middleware"
)

// tracked remembers where a router is mounted and whether it sits behind
// auth, so registrations can be catalogued with their full path
type tracked struct {
	Router
	base    string
	secured bool
}

func scope(r Router) (base string, secured bool) {
	if t, ok := r.(tracked); ok {
		return t.base, t.secured
	}
	return "", false
}

func (t tracked) Route(prefix string, fn func(Router)) {
	t.Router.Route(prefix, func(sub Router) { fn(tracked{sub, path.Join(t.base, prefix), t.secured}) })
}

func (t tracked) Group(fn func(Router)) {
	t.Router.Group(func(sub Router) { fn(tracked{sub, t.base, t.secured}) })
}

// MountUnder mounts a subrouter at prefix behind mw
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	base, secured := scope(r)
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(tracked{sub, path.Join("/", base, prefix), secured})
	})
}

// MountAPIV1 mounts the /api/v1 scope every module lives under
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/api/v1", mw, mount)
}

// Protected registers fn's routes behind bearer auth. A nil port leaves
// them open and undocumented as secured
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	base, secured := scope(r)
	r.Group(func(g Router) {
		g.Use(middleware.Auth(p))
		fn(tracked{g, base, secured || p != nil})
	})
}

// Get mounts a bodyless GET
func Get(r Router, p string, h func(*http.Request) (any, error)) {
	document(r, http.MethodGet, p, nil)
	r.Get(p, Call(h))
}

// Post mounts a bodyless POST
func Post(r Router, p string, h func(*http.Request) (any, error)) {
	document(r, http.MethodPost, p, nil)
	r.Post(p, Call(h))
}

// PostJSON mounts a POST whose body binds into T
func PostJSON[T any](r Router, p string, h func(*http.Request, T) (any, error)) {
	document(r, http.MethodPost, p, reflect.TypeFor[T]())
	r.Post(p, JSON(h))
}

func document(r Router, method, p string, body reflect.Type) {
	base, secured := scope(r)
	swaggerkit.Record(swaggerkit.Op{
		Method:  method,
		Path:    path.Join("/", base, p),
		Secured: secured,
		Body:    body,
	})
}
