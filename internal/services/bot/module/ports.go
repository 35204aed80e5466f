package module

import (
	"flexcode/internal/platform/net/middleware"
	dedupdom "flexcode/internal/services/dedup/domain"
	pdom "flexcode/internal/services/pipeline/domain"
	polldom "flexcode/internal/services/poller/domain"
)

// Requires are the ports injected from the pipeline, dedup and poller modules
type Requires struct {
	Scheduler  polldom.SchedulerPort
	Pipeline   pdom.PipelinePort
	Tracker    dedupdom.TrackerPort
	Dispatcher pdom.Dispatcher

	ConvertMode string
	Extractor   string

	// Auth is optional; nil leaves the ops routes open
	Auth middleware.AuthPort
}
