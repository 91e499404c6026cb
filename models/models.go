package models

import (
	"github.com/relaypay/billing-reconciler/config/database"
)

type BillingStore struct {
	db *database.DB
}

func NewBillingStore(db *database.DB) *BillingStore {
	return &BillingStore{
		db: db,
	}
}
