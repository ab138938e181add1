package values

// UDim is a single-axis proportional+offset coordinate (scale 0..1 of parent
// size, plus a pixel offset), matching Roblox's UDim.
type UDim struct {
	Scale  float64
	Offset float64
}

// UDim2 is a 2-axis proportional coordinate, used for GUI position/size.
type UDim2 struct {
	X, Y UDim
}

func NewUDim2(xScale, xOffset, yScale, yOffset float64) UDim2 {
	return UDim2{X: UDim{Scale: xScale, Offset: xOffset}, Y: UDim{Scale: yScale, Offset: yOffset}}
}

// Resolve computes absolute pixel coordinates given a parent size in pixels.
func (u UDim2) Resolve(parentW, parentH float64) (x, y float64) {
	x = u.X.Scale*parentW + u.X.Offset
	y = u.Y.Scale*parentH + u.Y.Offset
	return
}
