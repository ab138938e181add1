package instance

import (
	"github.com/lguibr/voxelrealm/signal"
	"github.com/lguibr/voxelrealm/values"
)

// GuiObject is the shared payload for Frame, TextLabel, TextButton,
// ImageLabel, ImageButton, and ScreenGui nodes. Fields not applicable to a
// given class (e.g. Text on a Frame) are simply left at their zero value;
// the observation builder's GUI serializer only emits what each ClassName
// actually uses.
type GuiObject struct {
	Position   values.UDim2
	Size       values.UDim2
	AnchorPoint values.Vector3 // only X, Y used (2D anchor)
	Rotation   float64
	ZIndex     int
	LayoutOrder int
	Visible    bool

	BackgroundColor        values.Color3
	BackgroundTransparency float64
	BorderColor            values.Color3
	BorderSize             float64

	Text            string
	TextColor       values.Color3
	TextSize        float64
	TextTransparency float64
	TextXAlignment  values.TextXAlignment
	TextYAlignment  values.TextYAlignment

	Image           string
	ImageColor      values.Color3
	ImageTransparency float64

	// ScreenGui-only fields.
	DisplayOrder int
	IgnoreGuiInset bool
	Enabled        bool

	// TextButton/ImageButton-only signals.
	MouseButton1Click *signal.Signal
	MouseButton1Down  *signal.Signal
	MouseButton1Up    *signal.Signal
	MouseEnter        *signal.Signal
	MouseLeave        *signal.Signal
}

// NewGuiObject returns a GuiObject payload with visible/enabled defaults;
// button signals are always allocated (unused ones simply never fire).
func NewGuiObject() *GuiObject {
	return &GuiObject{
		Size:       values.NewUDim2(0, 100, 0, 100),
		Visible:    true,
		Enabled:    true,
		BorderSize: 1,
		TextColor:  values.NewColor3(0, 0, 0),
		ImageColor: values.NewColor3(1, 1, 1),

		MouseButton1Click: signal.New(),
		MouseButton1Down:  signal.New(),
		MouseButton1Up:    signal.New(),
		MouseEnter:        signal.New(),
		MouseLeave:        signal.New(),
	}
}
