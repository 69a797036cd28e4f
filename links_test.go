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
package ledgerlink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jjessel/ledgerlink/database/memory"
	"github.com/jjessel/ledgerlink/database/mocks"
	"github.com/jjessel/ledgerlink/model"
)

func TestLinkTransactions(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		bankTxn("bank_1", "2024-03-10", -34.99, "AMAZON.DE"),
		orderTxn("ord_1", "2024-03-10", 20.00, "Echo Dot"),
		orderTxn("ord_2", "2024-03-10", 14.99, "USB cable"),
	)
	engine := NewLedgerLink(store)

	txn, err := engine.LinkTransactions(context.Background(), "bank_1", []string{"ord_1", "ord_2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_1", "ord_2"}, txn.LinkedOrderIDs)
}

// Linking another order to an already-linked charge keeps the existing
// link. Earlier behavior replaced the whole set, silently orphaning the
// first order; this pins the union semantics.
func TestLinkTransactionsUnionsWithExistingLinks(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -34.99, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1"}},
		orderTxn("ord_1", "2024-03-10", 20.00, "Echo Dot"),
		orderTxn("ord_2", "2024-03-10", 14.99, "USB cable"),
	)
	engine := NewLedgerLink(store)

	txn, err := engine.LinkTransactions(context.Background(), "bank_1", []string{"ord_2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_1", "ord_2"}, txn.LinkedOrderIDs)
}

func TestLinkTransactionsRelinkIsNoop(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -20, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1"}},
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
	)
	engine := NewLedgerLink(store)

	txn, err := engine.LinkTransactions(context.Background(), "bank_1", []string{"ord_1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_1"}, txn.LinkedOrderIDs)
}

func TestLinkTransactionsRejectsWrongRoles(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		bankTxn("bank_1", "2024-03-10", -20, "AMAZON.DE"),
		bankTxn("bank_2", "2024-03-10", -15, "AMAZON.DE"),
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
	)
	engine := NewLedgerLink(store)
	ctx := context.Background()

	// A context record cannot be the link holder.
	_, err := engine.LinkTransactions(ctx, "ord_1", []string{"bank_1"})
	assert.Error(t, err)

	// A bank record cannot be a link target.
	_, err = engine.LinkTransactions(ctx, "bank_1", []string{"bank_2"})
	assert.Error(t, err)
}

// All preconditions are checked before anything is written: a bad id in
// the list fails the whole request and leaves the bank record untouched.
func TestLinkTransactionsAllOrNothing(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		bankTxn("bank_1", "2024-03-10", -34.99, "AMAZON.DE"),
		orderTxn("ord_1", "2024-03-10", 20.00, "Echo Dot"),
	)
	engine := NewLedgerLink(store)
	ctx := context.Background()

	_, err := engine.LinkTransactions(ctx, "bank_1", []string{"ord_1", "ord_missing"})
	require.Error(t, err)

	bank, err := store.GetTransaction(ctx, "bank_1")
	require.NoError(t, err)
	assert.Empty(t, bank.LinkedOrderIDs)
}

// A context record belongs to at most one bank charge.
func TestLinkTransactionsEnforcesExclusivity(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -20, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1"}},
		bankTxn("bank_2", "2024-03-11", -20, "AMZN Mktp"),
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
	)
	engine := NewLedgerLink(store)

	_, err := engine.LinkTransactions(context.Background(), "bank_2", []string{"ord_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already linked")
}

func TestUnlinkTransactionsSpecificIDs(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -34.99, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1", "ord_2"}},
	)
	engine := NewLedgerLink(store)

	txn, err := engine.UnlinkTransactions(context.Background(), "bank_1", []string{"ord_1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_2"}, txn.LinkedOrderIDs)
}

func TestUnlinkTransactionsClearAll(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -34.99, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1", "ord_2"}},
	)
	engine := NewLedgerLink(store)

	txn, err := engine.UnlinkTransactions(context.Background(), "bank_1", nil)
	require.NoError(t, err)
	assert.Empty(t, txn.LinkedOrderIDs)
}

func TestUnlinkTransactionsFailures(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		bankTxn("bank_1", "2024-03-10", -34.99, "AMAZON.DE"),
		&model.Transaction{TransactionID: "bank_2", Date: day("2024-03-11"), Amount: -20, Description: "AMZN", LinkedOrderIDs: []string{"ord_1"}},
	)
	engine := NewLedgerLink(store)
	ctx := context.Background()

	// Nothing to unlink.
	_, err := engine.UnlinkTransactions(ctx, "bank_1", nil)
	assert.Error(t, err)

	// Naming an id that is not linked fails without touching the rest.
	_, err = engine.UnlinkTransactions(ctx, "bank_2", []string{"ord_1", "ord_other"})
	require.Error(t, err)
	bank, err := store.GetTransaction(ctx, "bank_2")
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_1"}, bank.LinkedOrderIDs)
}

func TestGetLinkedDetails(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -35.03, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_1", "ord_2"}},
		orderTxn("ord_1", "2024-03-10", 20.00, "Echo Dot"),
		orderTxn("ord_2", "2024-03-10", 14.99, "USB cable"),
	)
	engine := NewLedgerLink(store)

	details, err := engine.GetLinkedDetails(context.Background(), "bank_1")
	require.NoError(t, err)
	assert.Equal(t, "bank_1", details.BankTransaction.TransactionID)
	assert.Len(t, details.LinkedContext, 2)
	assert.InDelta(t, 34.99, details.TotalContextAmount, 1e-9)
	assert.InDelta(t, 0.04, details.AmountDifference, 1e-9)
}

func TestGetLinkedDetailsSkipsDanglingLinks(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "bank_1", Date: day("2024-03-10"), Amount: -20, Description: "AMAZON.DE", LinkedOrderIDs: []string{"ord_deleted", "ord_1"}},
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
	)
	engine := NewLedgerLink(store)

	details, err := engine.GetLinkedDetails(context.Background(), "bank_1")
	require.NoError(t, err)
	require.Len(t, details.LinkedContext, 1)
	assert.Equal(t, "ord_1", details.LinkedContext[0].TransactionID)
}

func TestAutoMatchAllContinuesPastFailures(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		bankTxn("bank_1", "2024-03-10", -20, "AMAZON.DE"),
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
	)
	engine := NewLedgerLink(store)

	result := engine.AutoMatchAll(context.Background(), []model.MatchSuggestion{
		{BankTransactionID: "bank_1", ContextIDs: []string{"ord_1"}},
		{BankTransactionID: "bank_missing", ContextIDs: []string{"ord_1"}},
	})

	assert.Equal(t, 1, result.LinkedCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bank_missing")
}

func TestAutoMatchPlatformAppliesOnlyHighConfidence(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		// Same-day pair, high confidence.
		bankTxn("bank_1", "2024-03-10", -20, "AMAZON.DE"),
		orderTxn("ord_1", "2024-03-10", 20, "Echo Dot"),
		// Five days apart, medium confidence, left for manual review.
		bankTxn("bank_2", "2024-03-20", -15, "AMZN Mktp"),
		orderTxn("ord_2", "2024-03-25", 15, "USB cable"),
	)
	engine := NewLedgerLink(store)
	ctx := context.Background()

	result, err := engine.AutoMatchPlatform(ctx, model.PlatformAmazon)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinkedCount)
	assert.Equal(t, 0, result.FailedCount)

	linked, err := store.GetTransaction(ctx, "bank_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_1"}, linked.LinkedOrderIDs)

	unlinked, err := store.GetTransaction(ctx, "bank_2")
	require.NoError(t, err)
	assert.Empty(t, unlinked.LinkedOrderIDs)
}

// The write only happens after every precondition passed, and it carries
// the unioned id set.
func TestLinkTransactionsWritesUnionOnce(t *testing.T) {
	ds := new(mocks.MockDataSource)
	engine := NewLedgerLink(ds)
	ctx := context.Background()

	bank := &model.Transaction{TransactionID: "bank_1", LinkedOrderIDs: []string{"ord_1"}}
	order := &model.Transaction{TransactionID: "ord_2", IsContextOnly: true}
	updated := &model.Transaction{TransactionID: "bank_1", LinkedOrderIDs: []string{"ord_1", "ord_2"}}

	ds.On("GetTransaction", mock.Anything, "bank_1").Return(bank, nil)
	ds.On("GetTransaction", mock.Anything, "ord_2").Return(order, nil)
	ds.On("GetBankTransactionsByLinkedID", mock.Anything, "ord_2").Return([]*model.Transaction{}, nil)
	ds.On("UpdateTransactionLinks", mock.Anything, "bank_1", []string{"ord_1", "ord_2"}).Return(updated, nil)

	txn, err := engine.LinkTransactions(ctx, "bank_1", []string{"ord_2"})
	require.NoError(t, err)
	assert.Equal(t, updated, txn)

	ds.AssertExpectations(t)
	ds.AssertNumberOfCalls(t, "UpdateTransactionLinks", 1)
}
