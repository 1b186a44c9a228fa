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


// Package exec runs algorithms against objects held in a registry.
//
// A Job names its inputs and outputs by registry name. The Executor resolves
// the inputs, runs the algorithm and binds each output with AddOrReplace, so
// observers of the registry see the results like any other change.
//
// # Group Processing
//
// When exactly one input resolves to a group and the algorithm does not
// declare GroupAware support, the algorithm runs once per member on a worker
// pool. The per-member outputs of each slot are collected, in member order,
// into a new group bound under the slot's output name; its members take
// generated names.
//
// # Usage
//
//	ex, err := exec.New(reg, exec.WithPoolSize(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Release()
//
//	err = ex.Run(ctx, exec.Job{
//	    Algorithm: exec.Scale(2),
//	    Inputs:    map[string]string{exec.InputSlot: "run_1"},
//	    Outputs:   map[string]string{exec.OutputSlot: "run_1_scaled"},
//	})
package exec
