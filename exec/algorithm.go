package exec

import (
	"context"
	"fmt"

	"github.com/poiesic/adstore/core"
)

// Default slot names.
const (
	InputSlot  = "InputWorkspace"
	OutputSlot = "OutputWorkspace"
)

// Algorithm transforms named input objects into named output objects.
// Exec must not mutate its inputs unless the algorithm documents it.
type Algorithm interface {
	Name() string
	Exec(ctx context.Context, inputs map[string]core.NamedObject) (map[string]core.NamedObject, error)
}

// GroupAware is implemented by algorithms that handle group inputs
// themselves instead of running once per member.
type GroupAware interface {
	AcceptsGroups() bool
}

type funcAlgorithm struct {
	name string
	fn   func(ctx context.Context, inputs map[string]core.NamedObject) (map[string]core.NamedObject, error)
}

// Func adapts a function to the Algorithm interface.
func Func(name string, fn func(ctx context.Context, inputs map[string]core.NamedObject) (map[string]core.NamedObject, error)) Algorithm {
	return &funcAlgorithm{name: name, fn: fn}
}

func (a *funcAlgorithm) Name() string { return a.name }

func (a *funcAlgorithm) Exec(ctx context.Context, inputs map[string]core.NamedObject) (map[string]core.NamedObject, error) {
	return a.fn(ctx, inputs)
}

// Scale returns an algorithm multiplying every Y value of the workspace in
// InputSlot by factor. The result, in OutputSlot, is a new workspace with
// the input's title and run properties.
func Scale(factor float64) Algorithm {
	return Func("Scale", func(ctx context.Context, inputs map[string]core.NamedObject) (map[string]core.NamedObject, error) {
		in, ok := inputs[InputSlot].(*core.Workspace)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a workspace, got %T", core.ErrTypeMismatch, InputSlot, inputs[InputSlot])
		}
		out := in.Clone()
		for i, y := range out.Spectra() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for j := range y {
				y[j] *= factor
			}
			if err := out.SetY(i, y); err != nil {
				return nil, err
			}
		}
		return map[string]core.NamedObject{OutputSlot: out}, nil
	})
}
