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
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/jjessel/ledgerlink/database"
	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"
)

// Store is an in-memory implementation of database.IDataSource. It backs
// engine tests and local development; behavior mirrors the postgres
// datasource, including its error codes.
type Store struct {
	mu           sync.Mutex
	transactions map[string]*model.Transaction
}

func NewStore() *Store {
	return &Store{transactions: make(map[string]*model.Transaction)}
}

// Seed loads transactions without duplicate checking. Test helper.
func (s *Store) Seed(txns ...*model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range txns {
		cp := *txn
		s.transactions[txn.TransactionID] = &cp
	}
}

func (s *Store) RecordTransaction(_ context.Context, txn *model.Transaction) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[txn.TransactionID]; exists {
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction with ID '%s' already exists", txn.TransactionID), nil)
	}
	cp := *txn
	s.transactions[txn.TransactionID] = &cp
	return txn, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), sql.ErrNoRows)
	}
	cp := *txn
	return &cp, nil
}

func (s *Store) GetAllTransactions(_ context.Context) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*model.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		cp := *txn
		all = append(all, &cp)
	}
	// Deterministic order, matching the postgres ORDER BY date, id.
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].TransactionID < all[j].TransactionID
	})
	return all, nil
}

func (s *Store) UpdateTransactionLinks(_ context.Context, id string, linkedOrderIDs []string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), sql.ErrNoRows)
	}
	txn.LinkedOrderIDs = append([]string(nil), linkedOrderIDs...)
	cp := *txn
	return &cp, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), sql.ErrNoRows)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) GetBankTransactionsByLinkedID(_ context.Context, contextID string) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.Transaction
	for _, txn := range s.transactions {
		for _, linked := range txn.LinkedOrderIDs {
			if linked == contextID {
				cp := *txn
				result = append(result, &cp)
				break
			}
		}
	}
	return result, nil
}

// Compile-time check: ensure Store implements IDataSource.
var _ database.IDataSource = (*Store)(nil)
