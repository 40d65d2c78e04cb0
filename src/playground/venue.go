package playground

import (
	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/eventmodels"
	"github.com/fxreplay/fxreplay/src/playground/models"
)

// VenueAdapter injects per-venue behavior into the engine: directive
// normalization before an order is accepted and the delivery path for
// protection change requests. The engine itself stays venue-agnostic.
type VenueAdapter interface {
	Name() string

	// NormalizeOrder applies venue-specific constraints to the directives of
	// an order about to be accepted. A non-nil error rejects the request.
	NormalizeOrder(instrument models.Instrument, directives models.OrderDirectives) error

	// RequestProtectionChange forwards a protection change to the venue. The
	// venue must eventually resolve the broker with an acknowledgement for
	// the request id.
	RequestProtectionChange(req eventmodels.ProtectionChangeRequest, broker *ProtectionBroker)
}

// PaperVenue is the built-in backtest venue: orders need no normalization and
// protection changes are acknowledged synchronously after validation.
type PaperVenue struct{}

func NewPaperVenue() *PaperVenue {
	return &PaperVenue{}
}

func (v *PaperVenue) Name() string {
	return "paper"
}

func (v *PaperVenue) NormalizeOrder(models.Instrument, models.OrderDirectives) error {
	return nil
}

func (v *PaperVenue) RequestProtectionChange(req eventmodels.ProtectionChangeRequest, broker *ProtectionBroker) {
	ack := eventmodels.ProtectionChangeAck{RequestID: req.RequestID}

	if err := req.Protection.Validate(); err != nil {
		ack.Rejected = true
		ack.Reason = err.Error()
	}

	if err := broker.Resolve(ack); err != nil {
		log.Warnf("paper venue: %v", err)
	}
}
