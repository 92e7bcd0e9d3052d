package handlers

import (
	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
)

// Handler bundles the HTTP endpoints with the services they call.
type Handler struct {
	Svc    *bridge.Service
	Ledger bridge.SourceLedger
	Dest   bridge.DestinationChain
	Log    *logrus.Entry
}

func New(svc *bridge.Service, ledger bridge.SourceLedger, dest bridge.DestinationChain, logger *logrus.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Ledger: ledger,
		Dest:   dest,
		Log:    logger.WithField("component", "http"),
	}
}
