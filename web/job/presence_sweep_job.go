package job

import (
	"context"
	"time"

	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/service"

	"go.uber.org/atomic"
)

// PresenceSweepJob clears the online flag of users whose last touch fell
// out of the presence window without a logout.
type PresenceSweepJob struct {
	presenceService service.PresenceService
	running         atomic.Bool
	timeout         time.Duration
}

func NewPresenceSweepJob() *PresenceSweepJob {
	return &PresenceSweepJob{timeout: 30 * time.Second}
}

// Run is invoked by cron. An invocation that finds the previous one still
// running returns immediately.
func (j *PresenceSweepJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Debug("presence sweep still running, skipping")
		return
	}
	defer j.running.Store(false)
	defer common.Recover("presence sweep job")

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.presenceService.DemoteStale(ctx)
	if err != nil {
		logger.Warning("presence sweep job err:", err)
		return
	}
	if n > 0 {
		logger.Debugf("presence sweep demoted %d user(s)", n)
	}
}
