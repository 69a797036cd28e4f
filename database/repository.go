/*
Copyright 2024 LedgerLink Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"

	"github.com/jjessel/ledgerlink/model"
)

// IDataSource defines the interface for data source operations consumed by
// the reconciliation engine. The engine is a pure function of this
// dependency; no package-level store backs it.
type IDataSource interface {
	transaction
}

// transaction defines methods for handling transactions.
type transaction interface {
	RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)             // Records a new transaction
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)                             // Retrieves a transaction by ID
	GetAllTransactions(ctx context.Context) ([]*model.Transaction, error)                                  // Retrieves the full current transaction set
	UpdateTransactionLinks(ctx context.Context, id string, linkedOrderIDs []string) (*model.Transaction, error) // Replaces the linked context ids on a bank record
	DeleteTransaction(ctx context.Context, id string) error                                                // Deletes a transaction by ID
	GetBankTransactionsByLinkedID(ctx context.Context, contextID string) ([]*model.Transaction, error)     // Retrieves bank records whose linkedOrderIds reference a context id
}
