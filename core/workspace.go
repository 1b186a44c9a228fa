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
	"maps"
	"slices"
	"strconv"
	"sync"
)

// NPeriodsProperty is the run property holding the number of periods of a
// multi-period measurement.
const NPeriodsProperty = "nperiods"

// Run holds string-keyed metadata describing how a workspace was measured.
type Run struct {
	mu         sync.RWMutex
	properties map[string]string
}

// NewRun creates an empty Run.
func NewRun() *Run {
	return &Run{properties: make(map[string]string)}
}

// AddProperty sets a property, replacing any previous value.
func (r *Run) AddProperty(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[name] = value
}

// Property returns a property value.
func (r *Run) Property(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.properties[name]
	return v, ok
}

// HasProperty reports whether a property is set.
func (r *Run) HasProperty(name string) bool {
	_, ok := r.Property(name)
	return ok
}

// IntProperty returns a property parsed as an integer.
// Returns ErrPropertyNotFound if the property is absent.
func (r *Run) IntProperty(name string) (int, error) {
	v, ok := r.Property(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("run property %s: %w", name, err)
	}
	return n, nil
}

// Properties returns a copy of all properties.
func (r *Run) Properties() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.properties)
}

// Keys returns the property names in sorted order.
func (r *Run) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.properties))
}

func (r *Run) memorySize() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var size uint64
	for k, v := range r.properties {
		size += uint64(len(k) + len(v))
	}
	return size
}

// Workspace is a histogram container: a set of spectra of Y values plus the
// run metadata. It is the leaf data object stored in the registry.
type Workspace struct {
	Base
	mu      sync.RWMutex
	title   string
	spectra [][]float64
	run     *Run
}

var _ Histogrammed = (*Workspace)(nil)

// NewWorkspace creates a detached workspace with nspec spectra of nbins zeroes.
func NewWorkspace(nspec, nbins int) *Workspace {
	spectra := make([][]float64, nspec)
	for i := range spectra {
		spectra[i] = make([]float64, nbins)
	}
	return &Workspace{
		spectra: spectra,
		run:     NewRun(),
	}
}

// NewWorkspaceFromData creates a detached workspace holding copies of spectra.
func NewWorkspaceFromData(title string, spectra [][]float64, properties map[string]string) *Workspace {
	ws := &Workspace{
		title:   title,
		spectra: make([][]float64, len(spectra)),
		run:     NewRun(),
	}
	for i, y := range spectra {
		ws.spectra[i] = slices.Clone(y)
	}
	for k, v := range properties {
		ws.run.AddProperty(k, v)
	}
	return ws
}

// Title returns the workspace title.
func (w *Workspace) Title() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

// SetTitle sets the workspace title.
func (w *Workspace) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

// NumberOfHistograms returns the number of spectra.
func (w *Workspace) NumberOfHistograms() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.spectra)
}

// Run returns the run metadata.
func (w *Workspace) Run() *Run {
	return w.run
}

// Y returns a copy of spectrum i.
func (w *Workspace) Y(i int) ([]float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i < 0 || i >= len(w.spectra) {
		return nil, fmt.Errorf("%w: %d", ErrSpectrumIndex, i)
	}
	return slices.Clone(w.spectra[i]), nil
}

// SetY replaces spectrum i.
func (w *Workspace) SetY(i int, y []float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.spectra) {
		return fmt.Errorf("%w: %d", ErrSpectrumIndex, i)
	}
	w.spectra[i] = slices.Clone(y)
	return nil
}

// Spectra returns a deep copy of all spectra.
func (w *Workspace) Spectra() [][]float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([][]float64, len(w.spectra))
	for i, y := range w.spectra {
		out[i] = slices.Clone(y)
	}
	return out
}

// MemorySize returns 8 bytes per value plus the run metadata size.
func (w *Workspace) MemorySize() uint64 {
	w.mu.RLock()
	var values uint64
	for _, y := range w.spectra {
		values += uint64(len(y))
	}
	w.mu.RUnlock()
	return values*8 + w.run.memorySize()
}

// Clone returns a detached deep copy. The name is not copied.
func (w *Workspace) Clone() *Workspace {
	return NewWorkspaceFromData(w.Title(), w.Spectra(), w.run.Properties())
}
