package iri

import (
	"context"
)

// Model runs requests against one kernel. It holds no state between runs.
type Model struct {
	Kernel Kernel
}

// NewModel returns a Model backed by k.
func NewModel(k Kernel) *Model {
	return &Model{Kernel: k}
}

// Run invokes the kernel once and reshapes its output. Kernel errors are
// returned unchanged.
func (m *Model) Run(ctx context.Context, req Request) (*Profile, error) {
	raw, err := m.Kernel.Run(ctx, NewKernelInput(req))
	if err != nil {
		return nil, err
	}
	return Reshape(raw, req.Altitudes)
}
