package tests

import (
	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type MockVerifier struct {
	ReturnedResult utils.Result[*models.BillingEvent]
	ExecutionCount int
	LastPayload    []byte
	LastSignature  string
}

func (mv *MockVerifier) VerifyAndParse(payload []byte, signature string) utils.Result[*models.BillingEvent] {
	mv.ExecutionCount++
	mv.LastPayload = payload
	mv.LastSignature = signature
	return mv.ReturnedResult
}
