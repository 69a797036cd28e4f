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

import (
	"fmt"

	"github.com/google/uuid"
)

// Platform identifies an external payment platform a bank-side charge can
// belong to.
type Platform string

const (
	PlatformAmazon Platform = "amazon"
	PlatformPaypal Platform = "paypal"
	// PlatformNone is returned when no signature matches.
	PlatformNone Platform = ""
)

// KnownPlatforms lists the supported platforms in classification precedence
// order.
var KnownPlatforms = []Platform{PlatformAmazon, PlatformPaypal}

// ParsePlatform validates a platform name from the wire.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range KnownPlatforms {
		if string(p) == s {
			return p, nil
		}
	}
	return PlatformNone, fmt.Errorf("unknown platform %q", s)
}

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}
