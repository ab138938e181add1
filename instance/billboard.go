package instance

import "github.com/lguibr/voxelrealm/values"

// BillboardGui is always-world-facing GUI attached to a part (the adornee).
type BillboardGui struct {
	Size         values.UDim2
	StudsOffset  values.Vector3
	AlwaysOnTop  bool
	Adornee      *Node // weak
}

func NewBillboardGui() *BillboardGui {
	return &BillboardGui{Size: values.NewUDim2(0, 100, 0, 100)}
}
