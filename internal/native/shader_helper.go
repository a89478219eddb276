// Package native holds the one piece of device-level plumbing
// gpurender needs that isn't specific to the tile lookup shader itself:
// turning WGSL source into the SPIR-V words a wgpu device consumes.
package native

import (
	"fmt"

	"github.com/gogpu/naga"
)

// CompileShaderToSPIRV compiles wgslSource to a SPIR-V module, naga's
// byte output repacked into little-endian 32-bit words. Used by
// gpurender.CompileLookupShader to turn the embedded directory lookup
// shader into the form a wgpu shader module descriptor expects.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}
