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
package model

// Confidence classifies how trustworthy an automatically generated match
// suggestion is. The generator only ever emits High or Medium; "low" is a
// presentation-layer banding over manually selected totals, not a
// suggestion tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow exists for manually banded totals only.
	ConfidenceLow Confidence = "low"
)

// MatchSuggestion proposes one bank record to one context record. It is
// derived per request and never persisted. ContextIDs is a slice for wire
// compatibility with manual multi-select links, but auto-generated
// suggestions always carry exactly one id.
type MatchSuggestion struct {
	BankTransactionID string     `json:"bankTransactionId"`
	ContextIDs        []string   `json:"contextIds"`
	Confidence        Confidence `json:"confidence"`
	TotalAmount       float64    `json:"totalAmount"`
	AmountDiff        float64    `json:"amountDiff"`
	DayDistance       int        `json:"dayDistance"`
}

// DuplicateGroup is a set of two or more transactions sharing a derived
// equality key. Groups are ephemeral; they are recomputed per request and
// never stored. Transactions are ordered by descending resolver score, so
// the first element is the recommended survivor.
type DuplicateGroup struct {
	Key          string         `json:"key"`
	Transactions []*Transaction `json:"transactions"`
}

// Survivor returns the recommended record to keep.
func (g *DuplicateGroup) Survivor() *Transaction {
	return g.Transactions[0]
}

// Removable returns the records recommended for removal, in score order.
func (g *DuplicateGroup) Removable() []*Transaction {
	return g.Transactions[1:]
}

// DuplicateReport is the result of a full duplicate sweep.
type DuplicateReport struct {
	TotalGroups     int               `json:"totalGroups"`
	TotalDuplicates int               `json:"totalDuplicates"`
	Groups          []*DuplicateGroup `json:"groups"`
}

// MatchingStats summarizes the reconciliation state of one platform's bank
// records.
type MatchingStats struct {
	Total           int `json:"total"`
	Linked          int `json:"linked"`
	Unlinked        int `json:"unlinked"`
	SuggestionCount int `json:"suggestionCount"`
}

// MatchingOverview is the per-platform reconciliation snapshot: the raw
// unlinked lists plus the generated suggestions. ContextUnlinked is
// serialized as ordersUnlinked for the marketplace platform and
// importsUnlinked for the payment provider; that mapping lives in the API
// layer.
type MatchingOverview struct {
	Platform        Platform          `json:"platform"`
	BankUnlinked    []*Transaction    `json:"bankUnlinked"`
	ContextUnlinked []*Transaction    `json:"contextUnlinked"`
	BankLinked      []*Transaction    `json:"bankLinked"`
	Suggestions     []MatchSuggestion `json:"suggestions"`
	Stats           MatchingStats     `json:"stats"`
}

// LinkedDetails is the linked-lookup result for one bank record.
// TotalContextAmount sums the magnitudes of the linked context records;
// AmountDifference is the gap to the bank charge's magnitude.
type LinkedDetails struct {
	BankTransaction    *Transaction   `json:"bankTransaction"`
	LinkedContext      []*Transaction `json:"linkedContext"`
	TotalContextAmount float64        `json:"totalContextAmount"`
	AmountDifference   float64        `json:"amountDifference"`
}

// AutoMatchResult aggregates the outcome of a batch link run. Individual
// pair failures are counted and reported, never fatal to the batch.
type AutoMatchResult struct {
	LinkedCount int      `json:"linkedCount"`
	FailedCount int      `json:"failedCount"`
	Errors      []string `json:"errors,omitempty"`
}

// ImportSummary reports the outcome of a bulk import gated by the
// import-time duplicate check.
type ImportSummary struct {
	Total             int `json:"total"`
	Imported          int `json:"imported"`
	SkippedDuplicates int `json:"skippedDuplicates"`
}
