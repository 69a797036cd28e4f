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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jjessel/ledgerlink/model"
)

func TestClassifyPlatformAmazon(t *testing.T) {
	tests := []struct {
		name        string
		description string
		beneficiary string
	}{
		{"plain description", "AMAZON.DE BESTELLUNG 306-1234567", ""},
		{"beneficiary only", "Lastschrift", "AMAZON PAYMENTS EUROPE S.C.A."},
		{"marketplace", "AMAZON MARKETPLACE 028-7654321", ""},
		{"audible", "AUDIBLE GMBH Abo", ""},
		{"noisy statement text", "AMAZN MKTP DE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &model.Transaction{Description: tt.description, Beneficiary: tt.beneficiary, Amount: -19.99}
			assert.Equal(t, model.PlatformAmazon, ClassifyPlatform(txn))
		})
	}
}

func TestClassifyPlatformPaypal(t *testing.T) {
	tests := []struct {
		name        string
		description string
		beneficiary string
	}{
		{"plain description", "PAYPAL Ihr Einkauf", ""},
		{"beneficiary", "Lastschrift", "PayPal Europe S.a.r.l."},
		{"merchant shorthand", "PP.4545.PP spotify", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &model.Transaction{Description: tt.description, Beneficiary: tt.beneficiary, Amount: -9.99}
			assert.Equal(t, model.PlatformPaypal, ClassifyPlatform(txn))
		})
	}
}

// A charge settled through PayPal but originating on Amazon must classify
// as amazon. The signature order encodes that precedence.
func TestClassifyPlatformAmazonBeatsPaypal(t *testing.T) {
	txn := &model.Transaction{
		Description: "PAYPAL *AMAZON MARKETPLACE",
		Amount:      -42.50,
	}
	assert.Equal(t, model.PlatformAmazon, ClassifyPlatform(txn))
}

func TestClassifyPlatformNone(t *testing.T) {
	tests := []struct {
		name        string
		description string
		beneficiary string
	}{
		{"grocery store", "REWE SAGT DANKE 44112233", "REWE Markt GmbH"},
		{"empty text", "", ""},
		{"rent", "MIETE AUGUST", "Hausverwaltung Schmidt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &model.Transaction{Description: tt.description, Beneficiary: tt.beneficiary, Amount: -50}
			assert.Equal(t, model.PlatformNone, ClassifyPlatform(txn))
		})
	}
}

func TestClassifyPlatformSkipsContextOnly(t *testing.T) {
	txn := &model.Transaction{
		Description:   "AMAZON Order 306-1234567",
		IsContextOnly: true,
		Source:        &model.SourceInfo{ConnectorType: "amazon", ExternalID: "306-1234567"},
	}
	assert.Equal(t, model.PlatformNone, ClassifyPlatform(txn))
}

func TestPlatformOf(t *testing.T) {
	order := &model.Transaction{
		Description:   "Echo Dot",
		IsContextOnly: true,
		Source:        &model.SourceInfo{ConnectorType: "amazon", ExternalID: "306-1234567"},
	}
	assert.Equal(t, model.PlatformAmazon, PlatformOf(order))

	transfer := &model.Transaction{
		Description:   "Digital goods",
		IsContextOnly: true,
		Source:        &model.SourceInfo{ConnectorType: "paypal", ExternalID: "8XY12345"},
	}
	assert.Equal(t, model.PlatformPaypal, PlatformOf(transfer))

	charge := &model.Transaction{Description: "AMAZON.DE", Amount: -10}
	assert.Equal(t, model.PlatformAmazon, PlatformOf(charge))
}

func TestPartialMatchDrift(t *testing.T) {
	assert.True(t, partialMatch("amazn", "amazon", 20.0))
	assert.True(t, partialMatch("amazon", "amazon", 20.0))
	assert.False(t, partialMatch("paypal", "amazon", 20.0))
}
