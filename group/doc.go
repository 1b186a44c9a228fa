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


// Package group provides Group, an ordered, possibly nested collection of
// named objects kept consistent with a registry.
//
// # Naming
//
// A named group gives every unnamed member a generated name of the form
// "<group>_<n>" where n comes from a per-group counter. Members that already
// have a name keep it; if they were bound at the top level of the registry
// they are adopted (unbound from the top level, kept in the group). When a
// generated name is already bound to a different registry object, SetName
// reverts every name it assigned during that call and fails with
// core.ErrNameConflict, unless force is set.
//
// Name comparisons follow the registry's core.NameMatcher everywhere in this
// package: Contains, Remove, ItemByName, FindItem and DeepRemove all agree.
//
// # Nesting
//
// Members may be groups. Recursive operations (FindItem, Count, DeepRemove,
// Print) fail with core.ErrTooDeepNesting once the depth exceeds the bound
// (DefaultMaxNesting unless WithMaxNesting is given). AddWorkspace refuses
// to make a group contain itself.
//
// # Locking
//
// Each group guards its members with its own mutex. Recursion takes the
// parent lock, then the child lock, never the reverse. The group name has a
// separate lock so Name never waits on membership operations. No registry
// call that publishes a notification is made while a membership lock is held.
//
// # Observation
//
// An observing group subscribes to registry removals and replacements: a
// member removed from the registry leaves the group, a replaced member is
// swapped in place. Every membership change ends with Updated, which
// publishes GroupUpdated when the group is registered.
package group
