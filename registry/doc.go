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


// Package registry provides the name-keyed store of shared named objects
// through which algorithms exchange data.
//
// # Names
//
// Keys are unique under the configured core.NameMatcher. By default lookups
// are case-insensitive: "Run1" and "run1" are the same entry. The display
// name keeps the spelling used when the entry was added.
//
// # Ownership
//
// The registry holds references, not copies. Retrieve returns the same object
// that was added, and that object stays valid for the caller even if another
// goroutine removes it from the registry afterwards.
//
// # Notifications
//
// Every successful mutation publishes an event on the injected notify.Bus
// after the registry lock has been released, so observers may call back into
// the registry.
//
// # Removal
//
// Remove is two-phase. When the entry is the object's last top-level binding
// the object's name is cleared first (a group clears its members' names in
// the same hook), then the binding is erased, then ObjectRemoved is published.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package registry
