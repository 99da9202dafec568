package iri

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
)

// RawOutput is the kernel result exactly as produced.
//
// Out is indexed [quantity][height]. Rows 0-3 are Ne (m-3), Tn, Ti, Te (K);
// rows 4-10 are the O+, H+, He+, O2+, NO+, cluster ion and N+ shares of Ne
// in percent. Aux is the OARR array (see Aux for the field order).
type RawOutput struct {
	Out [][]float64
	Aux []float64
}

// Kernel runs IRI-90 once.
type Kernel interface {
	Run(ctx context.Context, in KernelInput) (RawOutput, error)
}

// =============================================================================
// In-process kernel
// =============================================================================

// workDirMu serializes every change of the process working directory.
var workDirMu sync.Mutex

// InDir runs fn with the process working directory set to dir and restores
// the previous directory on every exit path, including a panic in fn.
// Calls are serialized; the working directory is process-global.
func InDir(dir string, fn func() error) (err error) {
	workDirMu.Lock()
	defer workDirMu.Unlock()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir %s: %w", dir, err)
	}
	defer func() {
		if cerr := os.Chdir(cwd); cerr != nil && err == nil {
			err = fmt.Errorf("restore working directory %s: %w", cwd, cerr)
		}
	}()

	return fn()
}

// KernelFunc is an in-process kernel entry point, typically a cgo binding
// that opens its coefficient files relative to the working directory.
type KernelFunc func(in KernelInput) (RawOutput, error)

// FuncKernel runs a KernelFunc inside Dir.
type FuncKernel struct {
	Dir    string // directory that contains DataPath
	Fn     KernelFunc
	Logger *log.Logger // optional debug output
}

// Run implements Kernel. Errors from Fn are returned as they are.
func (k *FuncKernel) Run(ctx context.Context, in KernelInput) (RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return RawOutput{}, err
	}

	var out RawOutput
	var runErr error
	err := InDir(k.Dir, func() error {
		if k.Logger != nil {
			wd, _ := os.Getwd()
			k.Logger.Printf("iri90: working directory %s", wd)
		}
		out, runErr = k.Fn(in)
		return nil
	})
	if err != nil {
		return RawOutput{}, err
	}
	return out, runErr
}
