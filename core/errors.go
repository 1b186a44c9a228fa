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

import "errors"

// Registry and group errors
var (
	// ErrNotFound indicates a requested name, index or object is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a name is already bound in the registry.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNameConflict indicates a generated member name collides with a
	// different object already in the registry.
	ErrNameConflict = errors.New("name conflict")

	// ErrIndexOutOfRange indicates a group index outside [0, size).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrTooDeepNesting indicates a recursive group operation exceeded the
	// nesting bound. Usually means the groups form a cycle.
	ErrTooDeepNesting = errors.New("group nesting too deep")

	// ErrTypeMismatch indicates an object does not have the requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidName indicates a name rejected by ValidateName.
	ErrInvalidName = errors.New("invalid name")

	// ErrCycle indicates an insertion would make a group contain itself.
	ErrCycle = errors.New("group cycle")
)

// Workspace errors
var (
	// ErrSpectrumIndex indicates a spectrum index outside the workspace.
	ErrSpectrumIndex = errors.New("spectrum index out of range")

	// ErrPropertyNotFound indicates a run property is absent.
	ErrPropertyNotFound = errors.New("run property not found")
)
