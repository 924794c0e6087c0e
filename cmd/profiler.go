package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ccnd-go/ccnd/core"
)

// Profiler owns the lifecycle of the optional CPU/mem/block profiles
// the --cpu-profile/--mem-profile/--block-profile flags enable,
// adapted from fw/cmd/profiler.go almost verbatim.
type Profiler struct {
	config  *core.Config
	cpuFile *os.File
	block   *pprof.Profile
}

// NewProfiler constructs a Profiler bound to config's profile flags.
func NewProfiler(config *core.Config) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string { return "profiler" }

// Start opens the CPU profile (if requested) and begins collecting
// blocking-operation samples (if requested).
func (p *Profiler) Start() (err error) {
	if p.config.Core.CpuProfile != "" {
		p.cpuFile, err = os.Create(p.config.Core.CpuProfile)
		if err != nil {
			return err
		}
		core.Log.Info(p, "profiling CPU", "out", p.config.Core.CpuProfile)
		pprof.StartCPUProfile(p.cpuFile)
	}

	if p.config.Core.BlockProfile != "" {
		core.Log.Info(p, "profiling blocking operations", "out", p.config.Core.BlockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}

	return nil
}

// Stop writes every requested profile to its output file.
func (p *Profiler) Stop() {
	if p.block != nil {
		f, err := os.Create(p.config.Core.BlockProfile)
		if err != nil {
			core.Log.Error(p, "unable to open block profile output", "err", err)
		} else {
			if err := p.block.WriteTo(f, 0); err != nil {
				core.Log.Error(p, "unable to write block profile", "err", err)
			}
			f.Close()
		}
	}

	if p.config.Core.MemProfile != "" {
		f, err := os.Create(p.config.Core.MemProfile)
		if err != nil {
			core.Log.Error(p, "unable to open memory profile output", "err", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				core.Log.Error(p, "unable to write memory profile", "err", err)
			}
			f.Close()
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}
