package adstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/adstore/config"
	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/exec"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/registry"
	"github.com/poiesic/adstore/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	all := append([]ServiceOption{WithConfig(config.NewConfig(config.WithInMemory()))}, opts...)
	svc, err := NewService(all...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewService(t *testing.T) {
	t.Run("create on-disk service", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "store")
		svc, err := NewService(WithConfig(config.NewConfig(config.WithStorePath(dir))))
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.NotNil(t, svc.Registry())
		assert.NotNil(t, svc.Bus())
		assert.NotNil(t, svc.Repository())
		assert.NotNil(t, svc.Executor())
		assert.NotNil(t, svc.logger)
		assert.DirExists(t, dir)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		svc, err := NewService(WithConfig(config.NewConfig(config.WithStorePath(tmpFile))))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("error with invalid config", func(t *testing.T) {
		svc, err := NewService(WithConfig(config.NewConfig(config.WithInMemory(), config.WithMaxNesting(0))))
		assert.EqualError(t, err, "config: MaxNesting must be at least 1")
		assert.Nil(t, svc)
	})
}

func TestService_Close(t *testing.T) {
	svc, err := NewService(WithConfig(config.NewConfig(config.WithStorePath(t.TempDir()))))
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.True(t, svc.backend.IsClosed())
}

func TestService_ConfigFlowsToComponents(t *testing.T) {
	svc := memoryService(t, WithConfig(config.NewConfig(
		config.WithInMemory(),
		config.WithCaseSensitive(true),
		config.WithMaxNesting(1),
	)))

	ws := core.NewWorkspace(1, 1)
	require.NoError(t, svc.Registry().Add("Run", ws))
	assert.False(t, svc.Registry().DoesExist("run"), "case sensitive lookups")

	outer, err := svc.NewGroup()
	require.NoError(t, err)
	defer outer.Close()
	inner, err := svc.NewGroup()
	require.NoError(t, err)
	defer inner.Close()
	innermost, err := svc.NewGroup()
	require.NoError(t, err)
	defer innermost.Close()

	require.NoError(t, innermost.AddWorkspace(core.NewWorkspace(1, 1)))
	require.NoError(t, inner.AddWorkspace(innermost))
	require.NoError(t, outer.AddWorkspace(inner))
	_, _, err = outer.FindItem("absent")
	require.ErrorIs(t, err, core.ErrTooDeepNesting)
}

func TestService_NewGroupOptionsOverride(t *testing.T) {
	svc := memoryService(t)
	g, err := svc.NewGroup(group.WithObserving(false))
	require.NoError(t, err)
	defer g.Close()
	assert.False(t, g.IsObserving())
}

func TestService_SaveAndLoadAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")
	cfg := func() *config.Config { return config.NewConfig(config.WithStorePath(dir)) }

	svc, err := NewService(WithConfig(cfg()))
	require.NoError(t, err)

	g, err := svc.NewGroup()
	require.NoError(t, err)
	require.NoError(t, g.AddWorkspace(core.NewWorkspaceFromData("a", [][]float64{{1, 2}}, nil)))
	require.NoError(t, g.AddWorkspace(core.NewWorkspaceFromData("b", [][]float64{{3}}, nil)))
	require.NoError(t, svc.Registry().Add("runs", g))
	require.NoError(t, svc.Registry().Add("single", core.NewWorkspaceFromData("s", [][]float64{{9}}, map[string]string{"nperiods": "2"})))

	manifest, err := svc.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Objects)
	g.Close()
	require.NoError(t, svc.Close())

	reopened, err := NewService(WithConfig(cfg()))
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, []string{"runs", "single"}, reopened.Registry().Names())

	runs, err := registry.RetrieveAs[*group.Group](reopened.Registry(), "runs")
	require.NoError(t, err)
	defer runs.Close()
	assert.Equal(t, []string{"runs_1", "runs_2"}, runs.Names())

	single, err := registry.RetrieveAs[*core.Workspace](reopened.Registry(), "single")
	require.NoError(t, err)
	n, err := single.Run().IntProperty("nperiods")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := reopened.Repository().LoadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Objects)
}

func TestService_PersistAndRestore(t *testing.T) {
	ctx := context.Background()
	svc := memoryService(t)

	require.NoError(t, svc.Registry().Add("raw", core.NewWorkspaceFromData("raw", [][]float64{{1, 2, 3}}, nil)))
	require.NoError(t, svc.Persist(ctx, "raw"))
	require.ErrorIs(t, svc.Persist(ctx, "absent"), core.ErrNotFound)

	require.NoError(t, svc.Registry().Remove("raw"))
	obj, err := svc.Restore(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", obj.Name())
	assert.True(t, svc.Registry().DoesExist("raw"))

	_, err = svc.Restore(ctx, "absent")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_Executor(t *testing.T) {
	svc := memoryService(t, WithConfig(config.NewConfig(config.WithInMemory(), config.WithPoolSize(2))))
	require.NoError(t, svc.Registry().Add("raw", core.NewWorkspaceFromData("", [][]float64{{1, 2}}, nil)))

	err := svc.Executor().Run(context.Background(), exec.Job{
		Algorithm: exec.Scale(2),
		Inputs:    map[string]string{exec.InputSlot: "raw"},
		Outputs:   map[string]string{exec.OutputSlot: "scaled"},
	})
	require.NoError(t, err)

	out, err := registry.RetrieveAs[*core.Workspace](svc.Registry(), "scaled")
	require.NoError(t, err)
	y, err := out.Y(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, y)
}

func TestService_Metrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	svc := memoryService(t, WithMetrics(promReg))

	require.NoError(t, svc.Registry().Add("a", core.NewWorkspace(1, 1)))
	require.NoError(t, svc.Registry().Add("b", core.NewWorkspace(1, 1)))

	expected := `
# HELP adstore_registry_entries Names bound at the top level of the registry.
# TYPE adstore_registry_entries gauge
adstore_registry_entries 2
`
	require.NoError(t, testutil.GatherAndCompare(promReg, strings.NewReader(expected), "adstore_registry_entries"))

	t.Run("duplicate registration fails", func(t *testing.T) {
		svc2, err := NewService(
			WithConfig(config.NewConfig(config.WithInMemory())),
			WithMetrics(promReg),
		)
		require.Error(t, err)
		assert.Nil(t, svc2)
	})
}
