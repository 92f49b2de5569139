package policy

import (
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

var _ ports.DenialHandler = (*NopDenialHandler)(nil)

// NopDenialHandler does nothing. It is the checker's default; callers
// that want denials observed wire a handler at construction.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(entities.Capability, string, entities.UserContext) {}
