package gpurender

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/virtex/internal/native"
)

// Embedded WGSL shader source for the GPU-side directory lookup,
// reproducing directory.Directory.Get and the cuckoo probe order.
//
//go:embed shaders/lookup.wgsl
var lookupShaderSource string

// ErrEmptyShaderSource is returned when an embedded shader failed to
// load (should not happen outside a broken build).
var ErrEmptyShaderSource = errors.New("gpurender: embedded shader source is empty")

// ShaderModuleID is an opaque handle to a compiled shader module. It is
// a placeholder until the WGPU backend's own module type is threaded
// through here, matching the teacher's own stub-handle convention for
// shader compilation.
type ShaderModuleID uint64

// InvalidShaderModule is the zero-value sentinel for an uncompiled
// module.
const InvalidShaderModule ShaderModuleID = 0

// LookupShaderModules holds the compiled SPIR-V bytecode for the
// directory lookup shader.
type LookupShaderModules struct {
	SPIRV []uint32
}

// CompileLookupShader validates and compiles the embedded WGSL lookup
// shader to SPIR-V via native.CompileShaderToSPIRV, the naga-backed
// WGSL→SPIR-V helper in internal/native.
func CompileLookupShader() (*LookupShaderModules, error) {
	if lookupShaderSource == "" {
		return nil, ErrEmptyShaderSource
	}

	spirvCode, err := native.CompileShaderToSPIRV(lookupShaderSource)
	if err != nil {
		return nil, fmt.Errorf("gpurender: compile lookup shader: %w", err)
	}

	return &LookupShaderModules{SPIRV: spirvCode}, nil
}
