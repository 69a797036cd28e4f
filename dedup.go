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
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"
)

// orderNumberPattern matches marketplace order numbers: two digit groups
// of 7 separated by a hyphen, e.g. 3051234-7654321.
var orderNumberPattern = regexp.MustCompile(`\b\d{7}-\d{7}\b`)

// identityMaxLen caps the normalized beneficiary/description component of
// a duplicate key.
const identityMaxLen = 30

// DuplicateKey derives the equality-class key for a record. Records
// sharing a key are believed to represent one real-world event recorded
// more than once.
//
// The amount component keeps its sign: a purchase and its refund share
// magnitude but are never the same event, so they must never share a key.
// The identity component is picked in priority order: an extractable order
// number beats the beneficiary, which beats the description.
func DuplicateKey(txn *model.Transaction) string {
	dateKey := txn.DayKey()
	amountKey := decimal.NewFromFloat(txn.Amount).StringFixed(2)

	if orderNumber := orderNumberPattern.FindString(txn.Description); orderNumber != "" {
		return fmt.Sprintf("amazon:%s:%s:%s", dateKey, orderNumber, amountKey)
	}
	if txn.Beneficiary != "" {
		return fmt.Sprintf("benef:%s:%s:%s", dateKey, amountKey, normalizeIdentity(txn.Beneficiary))
	}
	return fmt.Sprintf("generic:%s:%s:%s", dateKey, amountKey, normalizeIdentity(txn.Description))
}

// normalizeIdentity lowercases, strips non-alphanumerics and truncates to
// identityMaxLen runes.
func normalizeIdentity(s string) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		count++
		if count == identityMaxLen {
			break
		}
	}
	return b.String()
}

// scoreTransaction rates a duplicate-group member by the downstream value
// it carries. The copy with a category assignment, a known beneficiary or
// existing links is the one worth keeping; description length is a capped
// completeness proxy, not a primary signal.
func scoreTransaction(txn *model.Transaction) float64 {
	var score float64
	if txn.Category != "" {
		score += 10
	}
	if txn.Beneficiary != "" {
		score += 5
	}
	if txn.HasLinks() {
		score += 8
	}
	if txn.ExternalID() != "" {
		score += 3
	}
	descScore := float64(len(txn.Description)) / 20
	if descScore > 5 {
		descScore = 5
	}
	return score + descScore
}

// resolveGroup stable-sorts a group descending by score; the first element
// becomes the recommended survivor.
func resolveGroup(group *model.DuplicateGroup) {
	sort.SliceStable(group.Transactions, func(i, j int) bool {
		return scoreTransaction(group.Transactions[i]) > scoreTransaction(group.Transactions[j])
	})
}

// FindDuplicates runs a full duplicate sweep over the current transaction
// set: bucket all bank-side records by their duplicate key and report
// every bucket with two or more members, each resolved into a
// recommended-keep/remove split.
//
// Context-only records are excluded; their dedup happens at import time
// against source.externalId. The report only recommends; deletion is
// deferred to RemoveDuplicate / RemoveDuplicatesAuto.
func (l *LedgerLink) FindDuplicates(ctx context.Context) (*model.DuplicateReport, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "FindDuplicates")
	defer span.End()

	transactions, err := l.datasource.GetAllTransactions(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]*model.Transaction)
	var keyOrder []string
	for _, txn := range transactions {
		if txn.IsContextOnly {
			continue
		}
		key := DuplicateKey(txn)
		if _, seen := buckets[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		buckets[key] = append(buckets[key], txn)
	}

	report := &model.DuplicateReport{Groups: []*model.DuplicateGroup{}}
	for _, key := range keyOrder {
		members := buckets[key]
		if len(members) < 2 {
			continue
		}
		group := &model.DuplicateGroup{Key: key, Transactions: members}
		resolveGroup(group)
		report.Groups = append(report.Groups, group)
		report.TotalGroups++
		report.TotalDuplicates += len(members) - 1
	}

	return report, nil
}

// RemoveDuplicate deletes a single record by id. Destructive; the caller
// decides which records go, the engine never deletes on its own.
func (l *LedgerLink) RemoveDuplicate(ctx context.Context, id string) error {
	if id == "" {
		return apierror.ValidationError("transaction id is required")
	}
	return l.datasource.DeleteTransaction(ctx, id)
}

// RemoveDuplicatesAuto re-runs the duplicate sweep and deletes every
// record the resolver recommends for removal, keeping each group's
// survivor. Individual delete failures are skipped so one bad row does
// not abort the sweep; the removed ids are reported either way.
func (l *LedgerLink) RemoveDuplicatesAuto(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "RemoveDuplicatesAuto")
	defer span.End()

	report, err := l.FindDuplicates(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, group := range report.Groups {
		for _, txn := range group.Removable() {
			if err := l.datasource.DeleteTransaction(ctx, txn.TransactionID); err != nil {
				continue
			}
			removed = append(removed, txn.TransactionID)
		}
	}
	return removed, nil
}
