package memory

import (
	"testing"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence/testsuite"
)

func TestAdapterConformance(t *testing.T) {
	testsuite.Run(t, func(t *testing.T) persistence.Store {
		return NewAdapter()
	})
}
