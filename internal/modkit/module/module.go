// Package module is the contract between modules and the code that wires
// them: a name, a ports bundle, and optional routes
package module

import phttp "flexcode/internal/platform/net/http"

// Module is a wired service component
type Module interface {
	Name() string
	// Ports is the bundle other modules consume, usually a struct of
	// interfaces. Nil when the module exports nothing
	Ports() any
	MountRoutes(r phttp.Router)
}
