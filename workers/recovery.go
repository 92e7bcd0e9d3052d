package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
	"goxrpbridge/config"
	"goxrpbridge/types"
)

// Worker_Recovery periodically re-runs orchestration for pending
// requests whose task died with the process. The conditional update in
// the store makes a duplicate run harmless; it aborts as soon as it
// observes a phase it did not expect. Recovery runs have no source
// secret, so a custodial request that died before its deposit was
// submitted can only fail cleanly.
func Worker_Recovery(ctx context.Context, svc *bridge.Service, store bridge.RequestStore, logger *logrus.Logger) {
	log := logger.WithField("component", "recovery")

	interval := time.Duration(config.Config.Bridge.RecoveryIntervalSec) * time.Second
	minAge := time.Duration(config.Config.Bridge.RecoveryAgeSec) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("recovery worker stopped")
			return
		case <-ticker.C:
		}

		pending, err := store.FindByStatus(types.StatusPending)
		if err != nil {
			log.WithError(err).Error("error listing pending requests")
			continue
		}

		cutoff := time.Now().Add(-minAge).Unix()
		for _, req := range pending {
			if req.TsCreated > cutoff {
				continue
			}

			log.WithFields(logrus.Fields{
				"requestId": req.RequestID,
				"phase":     req.Phase,
			}).Info("resuming stale bridge request")
			svc.Run(ctx, req.RequestID, "")
		}
	}
}
