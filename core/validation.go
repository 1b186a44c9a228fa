// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultIllegalCharacters are rejected anywhere in a registry name.
const DefaultIllegalCharacters = " +-*/%<>&|^~=!@()[]{},:.`$?\\"

// ValidateName validates a registry name.
//
// Validation rules:
//   - Name must not be empty
//   - Name must not contain control characters
//   - Name must not contain any rune of illegal
func ValidateName(name, illegal string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidName, name)
		}
		if strings.ContainsRune(illegal, r) {
			return fmt.Errorf("%w: %q contains illegal character %q", ErrInvalidName, name, r)
		}
	}
	return nil
}

// NameMatcher is the single name comparison policy shared by the registry
// and every group attached to it.
type NameMatcher struct {
	CaseSensitive bool
}

// Key returns the canonical form of name used for map keys.
func (m NameMatcher) Key(name string) string {
	if m.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// Match reports whether two names refer to the same entry.
func (m NameMatcher) Match(a, b string) bool {
	return m.Key(a) == m.Key(b)
}
