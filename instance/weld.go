package instance

import "github.com/lguibr/voxelrealm/values"

// Weld holds weak references to the two welded parts and the two frame
// offsets used by weld propagation (spec §4.1 phase 14):
// Part1.CFrame = Part0.CFrame * C0 * Inverse(C1).
type Weld struct {
	Part0 *Node
	Part1 *Node
	C0    values.CFrame
	C1    values.CFrame

	Enabled bool
}

func NewWeld() *Weld {
	return &Weld{C0: values.IdentityCFrame, C1: values.IdentityCFrame, Enabled: true}
}
