package module

import dom "flexcode/internal/services/dedup/domain"

// Ports holds the ports exposed by the dedup module
type Ports struct {
	Tracker dom.TrackerPort
}
