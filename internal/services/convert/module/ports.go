package module

import dom "flexcode/internal/services/convert/domain"

// Ports holds the ports exposed by the convert module
type Ports struct {
	Orchestrator dom.OrchestratorPort
	Converter    dom.Converter
}
