package modkit

import (
	"net/http"
	"slices"

	"flexcode/internal/modkit/httpkit"
)

// Built is the resolved option set
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build applies opts in order, later options winning
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	b.Mw = slices.Clip(b.Mw)
	return b
}

// Mount registers fn's routes behind the module middleware, under Prefix
// when one is set and directly on r otherwise
func (b Built) Mount(r httpkit.Router, fn func(httpkit.Router)) {
	if b.Prefix != "" {
		httpkit.MountUnder(r, b.Prefix, b.Mw, fn)
		return
	}
	r.Group(func(g httpkit.Router) {
		if len(b.Mw) > 0 {
			g.Use(b.Mw...)
		}
		fn(g)
	})
}
