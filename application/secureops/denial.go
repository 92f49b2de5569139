package secureops

import (
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

var _ ports.DenialHandler = (*LogDenialHandler)(nil)

// LogDenialHandler logs capability denials through the core logger.
// Wire it into the policy checker at construction:
//
//	policy.NewChecker(policy.WithDenialHandler(&secureops.LogDenialHandler{Logger: logger}))
type LogDenialHandler struct {
	Logger log.Logger
}

func (h *LogDenialHandler) OnDenial(capability entities.Capability, action string, uc entities.UserContext) {
	h.Logger.Warn("capability denied",
		"capability", capability,
		"action", action,
		"principal", uc.Principal(),
	)
}
