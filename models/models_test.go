package models_test

import (
	. "github.com/relaypay/billing-reconciler/models"

	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/relaypay/billing-reconciler/tests"
)

func setupBillingStore(t *testing.T) (*BillingStore, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := tests.SetupMockStore(t)
	return NewBillingStore(db), mock, cleanup
}
