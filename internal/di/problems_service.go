package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/config"
	"github.com/salmon302/DSATrain-sub000/internal/problems"
)

// ProblemsService wraps the problem catalog.
type ProblemsService struct {
	Store problems.Store
}

// NewProblems creates the problem catalog backend selected by configuration.
func NewProblems(i do.Injector) (*ProblemsService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	pc := cfgSvc.Get().Problems
	switch pc.Driver {
	case "", config.ProblemsMemory:
		return &ProblemsService{Store: problems.NewMemory()}, nil
	case config.ProblemsSQLite:
		s, err := problems.NewSQLite(pc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open problem catalog %s: %w", pc.Path, err)
		}
		return &ProblemsService{Store: s}, nil
	default:
		return nil, fmt.Errorf("unknown problems driver %q", pc.Driver)
	}
}

// Shutdown implements do.Shutdowner for catalog cleanup.
func (s *ProblemsService) Shutdown() error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
