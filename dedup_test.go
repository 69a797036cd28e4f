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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjessel/ledgerlink/database/memory"
	"github.com/jjessel/ledgerlink/model"
)

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDuplicateKeyOrderNumberWins(t *testing.T) {
	a := &model.Transaction{
		Date:        day("2024-03-10"),
		Amount:      -34.99,
		Description: "AMAZON.DE BESTELLUNG 3051234-7654321",
		Beneficiary: "AMAZON PAYMENTS",
	}
	b := &model.Transaction{
		Date:        day("2024-03-10"),
		Amount:      -34.99,
		Description: "Amazon Marketplace 3051234-7654321 Danke",
	}
	assert.Equal(t, DuplicateKey(a), DuplicateKey(b))
	assert.Contains(t, DuplicateKey(a), "amazon:")
}

func TestDuplicateKeyBeneficiaryFallback(t *testing.T) {
	a := &model.Transaction{
		Date:        day("2024-03-10"),
		Amount:      -12.50,
		Description: "Lastschrift Einzug",
		Beneficiary: "Stadtwerke Berlin GmbH",
	}
	b := &model.Transaction{
		Date:        day("2024-03-10"),
		Amount:      -12.50,
		Description: "LASTSCHRIFT",
		Beneficiary: "STADTWERKE BERLIN GMBH",
	}
	assert.Equal(t, DuplicateKey(a), DuplicateKey(b))
	assert.Contains(t, DuplicateKey(a), "benef:")
}

// A purchase and its refund share date, magnitude and text. The signed
// amount in the key must keep them apart.
func TestDuplicateKeyKeepsSign(t *testing.T) {
	purchase := &model.Transaction{Date: day("2024-03-10"), Amount: -19.99, Description: "AMAZON.DE"}
	refund := &model.Transaction{Date: day("2024-03-10"), Amount: 19.99, Description: "AMAZON.DE"}
	assert.NotEqual(t, DuplicateKey(purchase), DuplicateKey(refund))
}

func TestDuplicateKeyNormalizesIdentity(t *testing.T) {
	a := &model.Transaction{Date: day("2024-03-10"), Amount: -5, Description: "REWE SAGT DANKE. 4411/2233"}
	b := &model.Transaction{Date: day("2024-03-10"), Amount: -5, Description: "rewe sagt danke 44112233"}
	assert.Equal(t, DuplicateKey(a), DuplicateKey(b))
}

func TestScoreTransactionPrefersEnrichedCopy(t *testing.T) {
	enriched := &model.Transaction{
		Description: "AMAZON.DE",
		Category:    "shopping",
		Beneficiary: "Amazon",
	}
	// A long description alone is capped and never outranks a category.
	verbose := &model.Transaction{
		Description: "AMAZON.DE BESTELLUNG 3051234-7654321 DANKE FUER IHREN EINKAUF BEI AMAZON MARKETPLACE EU SARL",
	}
	assert.Greater(t, scoreTransaction(enriched), scoreTransaction(verbose))

	linked := &model.Transaction{Description: "AMAZON.DE", LinkedOrderIDs: []string{"ctx_1"}}
	assert.Greater(t, scoreTransaction(linked), scoreTransaction(verbose))
}

func TestFindDuplicates(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "txn_1", Date: day("2024-03-10"), Amount: -34.99, Description: "AMAZON.DE 3051234-7654321", Category: "shopping"},
		&model.Transaction{TransactionID: "txn_2", Date: day("2024-03-10"), Amount: -34.99, Description: "Amazon Marketplace 3051234-7654321"},
		&model.Transaction{TransactionID: "txn_3", Date: day("2024-03-10"), Amount: -34.99, Description: "AMZN Mktp 3051234-7654321"},
		&model.Transaction{TransactionID: "txn_4", Date: day("2024-03-11"), Amount: -8.99, Description: "PAYPAL spotify"},
	)
	engine := NewLedgerLink(store)

	report, err := engine.FindDuplicates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalGroups)
	assert.Equal(t, 2, report.TotalDuplicates)
	require.Len(t, report.Groups, 1)
	// txn_1 carries a category, so it is the recommended survivor.
	assert.Equal(t, "txn_1", report.Groups[0].Survivor().TransactionID)
	assert.Len(t, report.Groups[0].Removable(), 2)
}

func TestFindDuplicatesExcludesContextRecords(t *testing.T) {
	store := memory.NewStore()
	// Two identical context records; import-time dedup owns those.
	store.Seed(
		&model.Transaction{TransactionID: "ctx_1", Date: day("2024-03-10"), Amount: 34.99, Description: "Echo Dot", IsContextOnly: true},
		&model.Transaction{TransactionID: "ctx_2", Date: day("2024-03-10"), Amount: 34.99, Description: "Echo Dot", IsContextOnly: true},
	)
	engine := NewLedgerLink(store)

	report, err := engine.FindDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalGroups)
}

func TestRemoveDuplicateRequiresID(t *testing.T) {
	engine := NewLedgerLink(memory.NewStore())
	err := engine.RemoveDuplicate(context.Background(), "")
	assert.Error(t, err)
}

func TestRemoveDuplicatesAuto(t *testing.T) {
	store := memory.NewStore()
	store.Seed(
		&model.Transaction{TransactionID: "txn_1", Date: day("2024-03-10"), Amount: -34.99, Description: "AMAZON.DE 3051234-7654321", Category: "shopping"},
		&model.Transaction{TransactionID: "txn_2", Date: day("2024-03-10"), Amount: -34.99, Description: "Amazon Marketplace 3051234-7654321"},
		&model.Transaction{TransactionID: "txn_3", Date: day("2024-03-11"), Amount: -8.99, Description: "PAYPAL spotify"},
		&model.Transaction{TransactionID: "txn_4", Date: day("2024-03-11"), Amount: -8.99, Description: "PP.4545 spotify"},
	)
	engine := NewLedgerLink(store)

	removed, err := engine.RemoveDuplicatesAuto(context.Background())
	require.NoError(t, err)
	// txn_1/txn_2 share an order number key; txn_3/txn_4 have different
	// normalized descriptions and stay untouched.
	assert.Equal(t, []string{"txn_2"}, removed)

	remaining, err := store.GetAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	// A second sweep finds nothing. The removal converged.
	removedAgain, err := engine.RemoveDuplicatesAuto(context.Background())
	require.NoError(t, err)
	assert.Empty(t, removedAgain)
}
