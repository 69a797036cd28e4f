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
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/jjessel/ledgerlink/model"
)

// platformSignature pairs a platform with the text patterns that identify
// its charges on a bank statement.
type platformSignature struct {
	Platform model.Platform
	Patterns []string
}

// platformSignatures is evaluated in order and the first matching platform
// wins. The order is policy, not an accident of code layout: amazon is
// checked before paypal so that an Amazon purchase settled through PayPal
// still classifies as amazon.
var platformSignatures = []platformSignature{
	{
		Platform: model.PlatformAmazon,
		Patterns: []string{"amazon", "amzn", "amazon.de", "amazon.com", "amazon payments", "amazon marketplace", "audible"},
	},
	{
		Platform: model.PlatformPaypal,
		Patterns: []string{"paypal", "pp.", "pp*"},
	},
}

// signatureDrift is the Levenshtein drift (percentage of the longer
// string) tolerated when a statement token nearly matches a signature.
// Statement text is noisy; "AMAZN MKTP" should still classify as amazon.
const signatureDrift = 20.0

// ClassifyPlatform pattern-matches a bank-side record's free text against
// the known platform signatures and returns the first matching platform,
// or PlatformNone.
//
// Context-only records are never classified here: their platform is
// already known from source.connectorType, see PlatformOf.
func ClassifyPlatform(txn *model.Transaction) model.Platform {
	if txn.IsContextOnly {
		return model.PlatformNone
	}

	text := strings.ToLower(strings.TrimSpace(txn.Description + " " + txn.Beneficiary))
	if text == "" {
		return model.PlatformNone
	}

	for _, signature := range platformSignatures {
		for _, pattern := range signature.Patterns {
			if matchesSignature(text, pattern) {
				return signature.Platform
			}
		}
	}
	return model.PlatformNone
}

// PlatformOf returns the platform a record belongs to: context-only
// records carry it in their source connector type, bank-side records are
// classified from their free text.
func PlatformOf(txn *model.Transaction) model.Platform {
	if txn.IsContextOnly {
		return model.Platform(txn.ConnectorType())
	}
	return ClassifyPlatform(txn)
}

// matchesSignature checks containment first, then falls back to a
// token-level Levenshtein comparison within signatureDrift.
func matchesSignature(text, pattern string) bool {
	if strings.Contains(text, pattern) {
		return true
	}

	for _, token := range strings.Fields(text) {
		if partialMatch(token, pattern, signatureDrift) {
			return true
		}
	}
	return false
}

// partialMatch compares two strings and checks if they match within a
// certain allowable drift, using Levenshtein distance.
func partialMatch(str1, str2 string, allowableDrift float64) bool {
	str1 = strings.ToLower(str1)
	str2 = strings.ToLower(str2)

	if strings.Contains(str1, str2) || strings.Contains(str2, str1) {
		return true
	}

	distance := levenshtein.DistanceForStrings([]rune(str1), []rune(str2), levenshtein.DefaultOptions)

	maxLength := float64(max(len(str1), len(str2)))
	maxAllowedDistance := int(maxLength * (allowableDrift / 100))

	return distance <= maxAllowedDistance
}
