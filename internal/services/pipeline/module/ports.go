package module

import (
	"flexcode/internal/core/platform"
	convdom "flexcode/internal/services/convert/domain"
	dedupdom "flexcode/internal/services/dedup/domain"
	dom "flexcode/internal/services/pipeline/domain"
)

// Ports holds the ports exposed by the pipeline module
type Ports struct {
	Pipeline dom.PipelinePort
	Registry *platform.Registry
}

// Requires are the ports injected from the convert and dedup modules
type Requires struct {
	Orchestrator convdom.OrchestratorPort
	Tracker      dedupdom.TrackerPort
}
