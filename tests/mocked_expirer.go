package tests

import (
	"github.com/relaypay/billing-reconciler/utils"
)

type MockExpirer struct {
	ExecutionCount int
	LastCustomerID string
	ReturnedError  error
}

func (me *MockExpirer) Expire(customerID string) utils.Result[bool] {
	me.ExecutionCount++
	me.LastCustomerID = customerID

	if me.ReturnedError != nil {
		return utils.FailedBoolResult(me.ReturnedError)
	}

	return utils.SuccessResult(true)
}
