package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/relaypay/billing-reconciler/utils"
)

type Customer struct {
	ID         string `gorm:"primaryKey"`
	Email      string
	ExternalID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (store *BillingStore) FetchCustomer(ctx context.Context, id string) utils.Result[*Customer] {
	var customer Customer

	result := store.db.Connection.WithContext(ctx).
		Where("id = ?", id).
		First(&customer)
	if result.Error != nil {
		return failedCustomerResult(result.Error)
	}

	return utils.SuccessResult(&customer)
}

func (store *BillingStore) FetchCustomerByEmail(ctx context.Context, email string) utils.Result[*Customer] {
	var customer Customer

	result := store.db.Connection.WithContext(ctx).
		Where("email = ?", email).
		First(&customer)
	if result.Error != nil {
		return failedCustomerResult(result.Error)
	}

	return utils.SuccessResult(&customer)
}

func (store *BillingStore) CreateCustomer(ctx context.Context, customer *Customer) utils.Result[*Customer] {
	result := store.db.Connection.WithContext(ctx).Create(customer)
	if result.Error != nil {
		return utils.FailedResult[*Customer](result.Error)
	}

	return utils.SuccessResult(customer)
}

func failedCustomerResult(err error) utils.Result[*Customer] {
	result := utils.FailedResult[*Customer](err)

	if err.Error() == gorm.ErrRecordNotFound.Error() {
		result = result.NonCapturable().NonRetryable()
	}

	return result
}
