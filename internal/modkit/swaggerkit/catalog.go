// Package swaggerkit documents the API from the routes modules actually
// mount. httpkit records each route as it is registered, and the OpenAPI
// document is assembled from that catalog on request
package swaggerkit

import (
	"cmp"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Op is one documented route
type Op struct {
	Method  string
	Path    string
	Secured bool
	Body    reflect.Type // nil when the route takes no body
}

var (
	mu  sync.Mutex
	ops = map[string]Op{}
)

var chiParam = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

// Record adds op to the catalog. Re-recording a method and path replaces it
func Record(op Op) {
	op.Method = strings.ToLower(op.Method)
	op.Path = chiParam.ReplaceAllString(op.Path, "{$1}")
	mu.Lock()
	ops[op.Method+" "+op.Path] = op
	mu.Unlock()
}

// Ops lists the catalog sorted by path then method
func Ops() []Op {
	mu.Lock()
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		out = append(out, op)
	}
	mu.Unlock()
	slices.SortFunc(out, func(a, b Op) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return out
}
