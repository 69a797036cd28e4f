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
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/jjessel/ledgerlink/internal/apierror"
	"github.com/jjessel/ledgerlink/model"
)

const (
	// matchWindowDays bounds how far apart a bank charge and its context
	// record may settle. Marketplace debits typically clear within a few
	// days of the order.
	matchWindowDays = 7

	// highConfidenceDays is the day distance up to which a suggestion is
	// rated high instead of medium.
	highConfidenceDays = 2
)

// amountTolerance treats two magnitudes as equal, covering rounding. The
// comparison runs in decimals so a pair exactly at the boundary is
// excluded; raw float64 subtraction lands such pairs just under it.
var amountTolerance = decimal.NewFromFloat(0.05)

// MatchingOverview classifies all eligible bank records by platform,
// removes already-linked records from consideration and runs the
// suggestion generator over what remains. It is a pure query over a
// snapshot: no side effects, nothing persisted, safe to recompute.
//
// Because the unlinked filters exclude linked records, re-running the
// overview after confirmed links never resurfaces a settled pair.
func (l *LedgerLink) MatchingOverview(ctx context.Context, platform model.Platform) (*model.MatchingOverview, error) {
	ctx, span := otel.Tracer("ledgerlink.reconciliation").Start(ctx, "MatchingOverview")
	defer span.End()

	if _, err := model.ParsePlatform(string(platform)); err != nil {
		return nil, apierror.ValidationError(err.Error())
	}

	transactions, err := l.datasource.GetAllTransactions(ctx)
	if err != nil {
		return nil, err
	}

	// A context record referenced by any bank record is settled,
	// regardless of which platform asked.
	referenced := make(map[string]struct{})
	for _, txn := range transactions {
		for _, id := range txn.LinkedOrderIDs {
			referenced[id] = struct{}{}
		}
	}

	overview := &model.MatchingOverview{
		Platform:        platform,
		BankUnlinked:    []*model.Transaction{},
		ContextUnlinked: []*model.Transaction{},
		BankLinked:      []*model.Transaction{},
	}

	for _, txn := range transactions {
		if PlatformOf(txn) != platform {
			continue
		}
		if txn.IsContextOnly {
			if _, ok := referenced[txn.TransactionID]; !ok {
				overview.ContextUnlinked = append(overview.ContextUnlinked, txn)
			}
			continue
		}
		if txn.HasLinks() {
			overview.BankLinked = append(overview.BankLinked, txn)
		} else {
			overview.BankUnlinked = append(overview.BankUnlinked, txn)
		}
	}

	overview.Suggestions = GenerateSuggestions(overview.BankUnlinked, overview.ContextUnlinked)
	overview.Stats = model.MatchingStats{
		Total:           len(overview.BankLinked) + len(overview.BankUnlinked),
		Linked:          len(overview.BankLinked),
		Unlinked:        len(overview.BankUnlinked),
		SuggestionCount: len(overview.Suggestions),
	}

	return overview, nil
}

// GenerateSuggestions proposes bank-to-context pairings with a confidence
// tier. Always one bank record to one context record; bundles that jointly
// sum to a bank amount are manual-select only. Results are sorted by
// ascending day distance.
func GenerateSuggestions(bankUnlinked, contextUnlinked []*model.Transaction) []model.MatchSuggestion {
	return generateSuggestionsWindow(bankUnlinked, contextUnlinked, matchWindowDays)
}

// candidatePair is a bank/context pairing inside the search window with a
// matching amount.
type candidatePair struct {
	bank    *model.Transaction
	context *model.Transaction
	dayDist int
	diff    float64
}

// generateSuggestionsWindow collects every candidate pair within the
// window, orders them by day distance and greedily assigns each bank and
// context record at most once. Assigning in global distance order keeps
// the result monotonic in the window: widening it only appends pairs with
// larger distances, never disturbs earlier picks.
func generateSuggestionsWindow(bankUnlinked, contextUnlinked []*model.Transaction, windowDays int) []model.MatchSuggestion {
	var pairs []candidatePair
	for _, bank := range bankUnlinked {
		for _, context := range contextUnlinked {
			dayDist := dayDistance(bank.Date, context.Date)
			if dayDist > windowDays {
				continue
			}
			diff := decimal.NewFromFloat(context.AbsAmount()).Sub(decimal.NewFromFloat(bank.AbsAmount())).Abs()
			if diff.GreaterThanOrEqual(amountTolerance) {
				continue
			}
			pairs = append(pairs, candidatePair{bank: bank, context: context, dayDist: dayDist, diff: diff.InexactFloat64()})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].dayDist != pairs[j].dayDist {
			return pairs[i].dayDist < pairs[j].dayDist
		}
		if pairs[i].bank.TransactionID != pairs[j].bank.TransactionID {
			return pairs[i].bank.TransactionID < pairs[j].bank.TransactionID
		}
		return pairs[i].context.TransactionID < pairs[j].context.TransactionID
	})

	usedBank := make(map[string]struct{})
	usedContext := make(map[string]struct{})
	suggestions := []model.MatchSuggestion{}
	for _, pair := range pairs {
		if _, ok := usedBank[pair.bank.TransactionID]; ok {
			continue
		}
		if _, ok := usedContext[pair.context.TransactionID]; ok {
			continue
		}
		usedBank[pair.bank.TransactionID] = struct{}{}
		usedContext[pair.context.TransactionID] = struct{}{}

		confidence := model.ConfidenceMedium
		if pair.dayDist <= highConfidenceDays {
			confidence = model.ConfidenceHigh
		}
		suggestions = append(suggestions, model.MatchSuggestion{
			BankTransactionID: pair.bank.TransactionID,
			ContextIDs:        []string{pair.context.TransactionID},
			Confidence:        confidence,
			TotalAmount:       pair.context.AbsAmount(),
			AmountDiff:        pair.diff,
			DayDistance:       pair.dayDist,
		})
	}

	return suggestions
}

// dayDistance is the whole-day distance between two instants after
// truncating both to their UTC calendar day.
func dayDistance(a, b time.Time) int {
	aDay := a.UTC().Truncate(24 * time.Hour)
	bDay := b.UTC().Truncate(24 * time.Hour)
	dist := int(aDay.Sub(bDay).Hours() / 24)
	if dist < 0 {
		dist = -dist
	}
	return dist
}
