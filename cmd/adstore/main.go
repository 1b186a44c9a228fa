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


package main

import (
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/poiesic/adstore"
	"github.com/poiesic/adstore/config"
	"github.com/poiesic/adstore/core"
	"github.com/poiesic/adstore/exec"
	"github.com/poiesic/adstore/group"
	"github.com/poiesic/adstore/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "adstore",
		Usage: "Inspect and edit a persisted analysis data store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Path to the BadgerDB store directory (overrides the config file)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "List stored top-level objects",
				Action: lsCommand,
			},
			{
				Name:      "tree",
				Usage:     "Print a stored object and its nested members",
				ArgsUsage: "NAME",
				Action:    treeCommand,
			},
			{
				Name:      "rm",
				Usage:     "Delete stored objects",
				ArgsUsage: "NAME...",
				Action:    rmCommand,
			},
			{
				Name:      "group",
				Usage:     "Group stored objects under a new name",
				ArgsUsage: "MEMBER...",
				Action:    groupCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Name of the new group",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "Keep the members stored at the top level as well",
					},
				},
			},
			{
				Name:   "import-demo",
				Usage:  "Populate the store with a group of synthetic multi-period workspaces",
				Action: importDemoCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Name of the demo group",
						Value: "demo",
					},
					&cli.IntFlag{
						Name:  "runs",
						Usage: "Number of workspaces in the group",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "periods",
						Usage: "Value of the nperiods run property",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "spectra",
						Usage: "Spectra per workspace",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "bins",
						Usage: "Bins per spectrum",
						Value: 16,
					},
					&cli.Float64Flag{
						Name:  "scale",
						Usage: "Also store a copy of the group scaled by this factor (0 disables)",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "Random seed for the synthetic counts",
						Value: 1,
					},
				},
			},
		},
	}
}

// openService builds a service from --config and --store.
func openService(c *cli.Context) (*adstore.Service, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if store := c.String("store"); store != "" {
		config.WithStorePath(store)(cfg)
	}

	svc, err := adstore.NewService(adstore.WithConfig(cfg), adstore.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return svc, nil
}

func lsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	summaries, err := svc.Repository().ListObjects(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tMEMBERS\tBYTES\tSAVED")
	for _, s := range summaries {
		members := "-"
		if s.Kind == storage.KindGroup {
			members = strconv.Itoa(s.Members)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.Name, s.Kind, members, s.MemorySize, s.SavedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func treeCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("object name is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	obj, err := svc.Restore(c.Context, name)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}

	switch o := obj.(type) {
	case *group.Group:
		defer o.Close()
		out, err := o.Print()
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, out)
		if o.IsMultiperiod() {
			fmt.Fprintln(c.App.Writer, "multi-period: yes")
		}
	case *core.Workspace:
		fmt.Fprintf(c.App.Writer, "%s (workspace, %d spectra, %d bytes)\n",
			o.Name(), o.NumberOfHistograms(), o.MemorySize())
	default:
		fmt.Fprintf(c.App.Writer, "%s (%T)\n", obj.Name(), obj)
	}
	return nil
}

func rmCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one object name is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, name := range c.Args().Slice() {
		if err := svc.Repository().DeleteObject(c.Context, name); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}
		fmt.Fprintf(c.App.Writer, "deleted %s\n", name)
	}
	return nil
}

func groupCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one member is required")
	}
	name := c.String("name")

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Registry().ValidateName(name); err != nil {
		return err
	}

	members := c.Args().Slice()
	for _, member := range members {
		if _, err := svc.Restore(c.Context, member); err != nil {
			return fmt.Errorf("failed to load %s: %w", member, err)
		}
	}

	g, err := svc.NewGroup()
	if err != nil {
		return err
	}
	defer g.Close()
	if err := svc.Registry().Add(name, g); err != nil {
		return err
	}
	for _, member := range members {
		if err := g.Add(member); err != nil {
			return fmt.Errorf("failed to add %s: %w", member, err)
		}
	}

	if err := svc.Persist(c.Context, name); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	if !c.Bool("keep") {
		for _, member := range members {
			if err := svc.Repository().DeleteObject(c.Context, member); err != nil {
				return fmt.Errorf("failed to delete %s: %w", member, err)
			}
		}
	}

	fmt.Fprintln(c.App.Writer, g.String())
	return nil
}

func importDemoCommand(c *cli.Context) error {
	runs := c.Int("runs")
	if runs <= 0 {
		return fmt.Errorf("runs must be greater than 0")
	}
	nspec := c.Int("spectra")
	nbins := c.Int("bins")
	if nspec <= 0 || nbins <= 0 {
		return fmt.Errorf("spectra and bins must be greater than 0")
	}
	periods := c.Int("periods")
	if periods < 0 {
		return fmt.Errorf("periods must not be negative")
	}
	name := c.String("name")

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	g, err := svc.NewGroup()
	if err != nil {
		return err
	}
	defer g.Close()
	if err := svc.Registry().AddOrReplace(name, g); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(c.Uint64("seed"), 0))
	for i := range runs {
		props := map[string]string{
			"run_number": strconv.Itoa(1000 + i),
			"nperiods":   strconv.Itoa(periods),
		}
		ws := core.NewWorkspaceFromData(fmt.Sprintf("%s run %d", name, i+1), syntheticSpectra(rng, nspec, nbins), props)
		if err := g.AddWorkspace(ws); err != nil {
			return err
		}
	}

	if factor := c.Float64("scale"); factor != 0 {
		job := exec.Job{
			Algorithm: exec.Scale(factor),
			Inputs:    map[string]string{exec.InputSlot: name},
			Outputs:   map[string]string{exec.OutputSlot: name + "_scaled"},
		}
		if err := svc.Executor().Run(c.Context, job); err != nil {
			return fmt.Errorf("failed to scale %s: %w", name, err)
		}
	}

	manifest, err := svc.Save(c.Context)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "imported %s: %d objects stored\n", g.String(), manifest.Objects)
	return nil
}

// syntheticSpectra returns Poisson-like counts around a gaussian peak.
func syntheticSpectra(rng *rand.Rand, nspec, nbins int) [][]float64 {
	spectra := make([][]float64, nspec)
	center := float64(nbins) / 2
	width := math.Max(float64(nbins)/8, 1)
	for s := range spectra {
		y := make([]float64, nbins)
		for b := range y {
			peak := 100 * math.Exp(-math.Pow(float64(b)-center, 2)/(2*width*width))
			y[b] = math.Round(peak + 5 + rng.NormFloat64()*math.Sqrt(peak+5))
			if y[b] < 0 {
				y[b] = 0
			}
		}
		spectra[s] = y
	}
	return spectra
}

func setupLogger(c *cli.Context) error {
	level, err := config.ParseLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
