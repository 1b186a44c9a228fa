package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/registry"
)

// Job is one algorithm invocation. Inputs and Outputs map slot names to
// registry names.
type Job struct {
	Algorithm Algorithm
	Inputs    map[string]string
	Outputs   map[string]string
}

// Executor runs jobs against a registry.
type Executor struct {
	reg        *registry.Registry
	memberPool *ants.Pool
	jobPool    *ants.Pool
	groupOpts  []group.Option
	logger     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Executor) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		e.Release()

		memberPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		jobPool, err := ants.NewPool(size)
		if err != nil {
			memberPool.Release()
			return err
		}

		e.memberPool = memberPool
		e.jobPool = jobPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithGroupOptions sets the options for output groups built by group
// processing.
func WithGroupOptions(opts ...group.Option) Option {
	return func(e *Executor) error {
		e.groupOpts = opts
		return nil
	}
}

// New creates an Executor bound to reg.
func New(reg *registry.Registry, opts ...Option) (*Executor, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	e := &Executor{
		reg:    reg,
		logger: slog.Default(),
	}
	if err := WithPoolSize(poolSize)(e); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}
	return e, nil
}

// Release releases the worker pools.
// The executor should not be used after calling Release.
func (e *Executor) Release() {
	if e.memberPool != nil {
		e.memberPool.Release()
	}
	if e.jobPool != nil {
		e.jobPool.Release()
	}
}

// Run executes job. Inputs are resolved by name; a missing input fails with
// core.ErrNotFound and an output slot the algorithm leaves empty fails with
// ErrMissingOutput. Outputs are bound only when every slot is filled.
func (e *Executor) Run(ctx context.Context, job Job) error {
	if job.Algorithm == nil {
		return ErrAlgorithmRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	inputs := make(map[string]core.NamedObject, len(job.Inputs))
	for slot, name := range job.Inputs {
		obj, err := e.reg.Retrieve(name)
		if err != nil {
			return fmt.Errorf("%s input %s: %w", job.Algorithm.Name(), slot, err)
		}
		inputs[slot] = obj
	}

	if slot, g, ok := e.groupInput(job.Algorithm, inputs); ok {
		return e.runOverGroup(ctx, job, inputs, slot, g)
	}

	e.logger.Debug("running algorithm", "algorithm", job.Algorithm.Name())
	outputs, err := job.Algorithm.Exec(ctx, inputs)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Algorithm.Name(), err)
	}

	resolved := make(map[string]core.NamedObject, len(job.Outputs))
	for slot := range job.Outputs {
		obj, ok := outputs[slot]
		if !ok || obj == nil {
			return fmt.Errorf("%w: %s did not set %s", ErrMissingOutput, job.Algorithm.Name(), slot)
		}
		resolved[slot] = obj
	}
	return e.bind(job, resolved)
}

// groupInput returns the single group input when the algorithm should run
// per member.
func (e *Executor) groupInput(alg Algorithm, inputs map[string]core.NamedObject) (string, *group.Group, bool) {
	if ga, ok := alg.(GroupAware); ok && ga.AcceptsGroups() {
		return "", nil, false
	}
	var slot string
	var found *group.Group
	for s, obj := range inputs {
		g, ok := obj.(*group.Group)
		if !ok {
			continue
		}
		if found != nil {
			return "", nil, false
		}
		slot, found = s, g
	}
	return slot, found, found != nil
}

func (e *Executor) runOverGroup(ctx context.Context, job Job, inputs map[string]core.NamedObject, slot string, g *group.Group) error {
	members := g.Items()
	e.logger.Info("processing group member-wise",
		"algorithm", job.Algorithm.Name(), "group", g.Name(), "members", len(members))

	results := make([]map[string]core.NamedObject, len(members))
	errs := make([]error, len(members))
	var wg sync.WaitGroup
	for i, member := range members {
		memberInputs := maps.Clone(inputs)
		memberInputs[slot] = member

		wg.Add(1)
		err := e.memberPool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			out, err := job.Algorithm.Exec(ctx, memberInputs)
			if err != nil {
				errs[i] = fmt.Errorf("%s on %s: %w", job.Algorithm.Name(), member.Name(), err)
				return
			}
			results[i] = out
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	collected := make(map[string]core.NamedObject, len(job.Outputs))
	for outSlot := range job.Outputs {
		out, err := group.New(e.reg, e.groupOpts...)
		if err != nil {
			return err
		}
		for i, result := range results {
			obj, ok := result[outSlot]
			if !ok || obj == nil {
				out.Close()
				return fmt.Errorf("%w: %s did not set %s for member %d", ErrMissingOutput, job.Algorithm.Name(), outSlot, i)
			}
			if err := out.AddWorkspace(obj); err != nil {
				out.Close()
				return err
			}
		}
		collected[outSlot] = out
	}
	return e.bind(job, collected)
}

func (e *Executor) bind(job Job, outputs map[string]core.NamedObject) error {
	var errs []error
	for slot, name := range job.Outputs {
		if err := e.reg.AddOrReplace(name, outputs[slot]); err != nil {
			errs = append(errs, fmt.Errorf("%s output %s: %w", job.Algorithm.Name(), slot, err))
		}
	}
	return errors.Join(errs...)
}

// RunBatch runs jobs concurrently and returns their joined errors.
func (e *Executor) RunBatch(ctx context.Context, jobs ...Job) error {
	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		err := e.jobPool.Submit(func() {
			defer wg.Done()
			if err := e.Run(ctx, job); err != nil {
				errs[i] = fmt.Errorf("job %d: %w", i, err)
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("job %d: %w", i, err)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}
