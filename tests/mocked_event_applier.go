package tests

import (
	"context"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type MockEventApplier struct {
	ReturnedResult utils.Result[*models.ApplyOutcome]
	ExecutionCount int
	LastEvent      *models.BillingEvent
}

func (ma *MockEventApplier) ApplyEvent(ctx context.Context, ev *models.BillingEvent) utils.Result[*models.ApplyOutcome] {
	ma.ExecutionCount++
	ma.LastEvent = ev
	return ma.ReturnedResult
}
