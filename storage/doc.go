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


// Package storage provides the persistence layer for adstore.
//
// This package defines the ObjectRepository interface and the on-disk form
// of named objects, decoupling the registry from the storage engine.
//
// # Constructor Return Type Pattern
//
// Backends return their concrete repository type and assert at compile time
// that it satisfies the interface:
//
//	var _ storage.ObjectRepository = (*ObjectRepository)(nil)
//
// Consumers should hold the storage.ObjectRepository interface so tests can
// substitute an in-memory backend.
//
// # Data Model
//
// Every persisted object becomes a Node. A workspace node carries its title,
// spectra and run properties; a group node carries the IDs of its member
// nodes, in order. Node IDs are BLAKE2b hashes of the node path from the
// top-level name, so saving the same tree twice overwrites it in place.
// Nodes are encoded with mus-go serializers (records_mus.go).
//
// Top-level names are matched case-insensitively (RootKey).
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewObjectRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	if _, err := repo.SaveRegistry(ctx, reg); err != nil {
//	    log.Fatal(err)
//	}
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Long operations check it
// between objects.
package storage
