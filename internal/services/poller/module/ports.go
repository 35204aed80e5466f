package module

import (
	pdom "flexcode/internal/services/pipeline/domain"
	dom "flexcode/internal/services/poller/domain"
)

// Ports holds the ports exposed by the poller module. Dispatcher replies
// through the configured source, or to the log when there is none
type Ports struct {
	Scheduler  dom.SchedulerPort
	Dispatcher pdom.Dispatcher
}
