package di

import (
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/ledger"
)

// LedgerService wraps the monthly cost ledger.
type LedgerService struct {
	Ledger ledger.Ledger
}

// NewLedger creates the cost ledger, shared-backed when a store client
// is available.
func NewLedger(i do.Injector) (*LedgerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	storeSvc := do.MustInvoke[*StoreService](i)

	led := ledger.New(ledger.Config{
		MonthlyCapUSD: cfgSvc.Get().AI.MonthlyCostCapUSD,
	}, storeSvc.Client)

	return &LedgerService{Ledger: led}, nil
}

// Shutdown implements do.Shutdowner.
func (s *LedgerService) Shutdown() error {
	if s.Ledger != nil {
		return s.Ledger.Close()
	}
	return nil
}
