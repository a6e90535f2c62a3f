package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/questmap/pkg/scenario"
)

// ErrScenarioNotFound is returned when no scenario file has the requested name.
var ErrScenarioNotFound = errors.New("scenario not found")

// Content is read access to scenario content.
type Content interface {
	Ping(ctx context.Context) error
	ListScenarios(ctx context.Context) (map[string]string, error)
	GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error)
}
