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


package adstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/adstore/config"
	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/exec"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/metrics"
	"github.com/poiesic/adstore/notify"
	"github.com/poiesic/adstore/registry"
	"github.com/poiesic/adstore/storage"
	"github.com/poiesic/adstore/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Service wires a registry, its notification bus, persistent storage and an
// algorithm executor from one Config.
type Service struct {
	cfg       *config.Config
	bus       *notify.Bus
	reg       *registry.Registry
	backend   *badger.Backend
	repo      *badger.ObjectRepository
	executor  *exec.Executor
	collector *metrics.Collector
	groupOpts []group.Option
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	cfg        *config.Config
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithConfig sets the configuration. Default is config.DefaultConfig().
func WithConfig(cfg *config.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.cfg = cfg
	}
}

// WithLogger sets a custom logger for every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithMetrics registers registry metrics on r.
func WithMetrics(r prometheus.Registerer) ServiceOption {
	return func(o *serviceOptions) {
		o.registerer = r
	}
}

// NewService validates the configuration and opens every component.
func NewService(opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		cfg:    config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger

	bus := notify.NewBus(
		notify.WithLogger(logger),
		notify.WithWatchBuffer(cfg.WatchBuffer),
	)
	reg := registry.New(bus,
		registry.WithLogger(logger),
		registry.WithCaseSensitive(cfg.CaseSensitive),
		registry.WithIllegalCharacters(cfg.IllegalCharacters),
	)
	groupOpts := []group.Option{
		group.WithMaxNesting(cfg.MaxNesting),
		group.WithLogger(logger),
	}

	// Open backend
	backend, err := badger.OpenBackend(cfg.StorePath, cfg.InMemory, badger.WithLogger(logger))
	if err != nil {
		bus.Close()
		return nil, err
	}

	repo, err := badger.NewObjectRepository(backend,
		badger.WithGroupOptions(groupOpts...),
		badger.WithRepositoryLogger(logger),
	)
	if err != nil {
		backend.Close()
		bus.Close()
		return nil, err
	}

	execOpts := []exec.Option{
		exec.WithLogger(logger),
		exec.WithGroupOptions(groupOpts...),
	}
	if cfg.PoolSize > 0 {
		execOpts = append(execOpts, exec.WithPoolSize(cfg.PoolSize))
	}
	executor, err := exec.New(reg, execOpts...)
	if err != nil {
		repo.Close()
		backend.Close()
		bus.Close()
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		bus:       bus,
		reg:       reg,
		backend:   backend,
		repo:      repo,
		executor:  executor,
		groupOpts: groupOpts,
		logger:    logger,
	}

	if options.registerer != nil {
		collector, err := metrics.New(reg, options.registerer)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		s.collector = collector
	}
	return s, nil
}

// Close releases every component. Objects stay bound in the registry, but
// the bus stops delivering notifications.
func (s *Service) Close() error {
	if s.collector != nil {
		s.collector.Close()
	}
	s.executor.Release()

	// Close repository
	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing object repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	s.bus.Close()
	return nil
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Registry() *registry.Registry {
	return s.reg
}

func (s *Service) Bus() *notify.Bus {
	return s.bus
}

func (s *Service) Repository() storage.ObjectRepository {
	return s.repo
}

func (s *Service) Executor() *exec.Executor {
	return s.executor
}

// NewGroup creates a detached group with the configured nesting bound and
// logger. opts are applied after those defaults.
func (s *Service) NewGroup(opts ...group.Option) (*group.Group, error) {
	all := append(append([]group.Option{}, s.groupOpts...), opts...)
	return group.New(s.reg, all...)
}

// Save persists every top-level object.
func (s *Service) Save(ctx context.Context) (*storage.Manifest, error) {
	return s.repo.SaveRegistry(ctx, s.reg)
}

// Load binds every persisted object, replacing same-named entries.
func (s *Service) Load(ctx context.Context) (int, error) {
	return s.repo.LoadRegistry(ctx, s.reg)
}

// Persist saves the object bound to name.
func (s *Service) Persist(ctx context.Context, name string) error {
	obj, err := s.reg.Retrieve(name)
	if err != nil {
		return err
	}
	return s.repo.SaveObject(ctx, obj)
}

// Restore loads the object stored under name and binds it in the registry.
func (s *Service) Restore(ctx context.Context, name string) (core.NamedObject, error) {
	obj, err := s.repo.LoadObject(ctx, s.reg, name)
	if err != nil {
		return nil, err
	}
	if err := s.reg.AddOrReplace(name, obj); err != nil {
		return nil, err
	}
	return obj, nil
}
