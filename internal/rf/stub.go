package rf

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

// stub 尚无驱动的硬件后端
type stub struct {
	backend Backend
	log     *zap.Logger
}

func (s *stub) Initialize() error {
	s.log.Warn("rf backend not implemented")
	return fmt.Errorf("%w: %s", ErrNotImplemented, s.backend)
}

func (s *stub) Shutdown() error                        { return nil }
func (s *stub) IsConnected() bool                      { return false }
func (s *stub) ButtonEvents() []wire.ButtonEvent       { return nil }
func (s *stub) ValidateRollingCode(uint8, uint32) bool { return false }
func (s *stub) SetLearning(bool)                       {}
