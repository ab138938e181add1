package instance

// ClassName is the closed set of class tags an Instance node can carry.
type ClassName string

const (
	ClassInstance            ClassName = "Instance"
	ClassPart                ClassName = "Part"
	ClassModel               ClassName = "Model"
	ClassHumanoid            ClassName = "Humanoid"
	ClassPlayer              ClassName = "Player"
	ClassFolder               ClassName = "Folder"
	ClassWorkspace            ClassName = "Workspace"
	ClassPlayers              ClassName = "Players"
	ClassRunService           ClassName = "RunService"
	ClassCamera               ClassName = "Camera"
	ClassWeld                 ClassName = "Weld"
	ClassBillboardGui         ClassName = "BillboardGui"
	ClassPlayerGui            ClassName = "PlayerGui"
	ClassScreenGui            ClassName = "ScreenGui"
	ClassFrame                ClassName = "Frame"
	ClassTextLabel            ClassName = "TextLabel"
	ClassTextButton           ClassName = "TextButton"
	ClassImageLabel           ClassName = "ImageLabel"
	ClassImageButton          ClassName = "ImageButton"
	ClassScript               ClassName = "Script"
	ClassModuleScript         ClassName = "ModuleScript"
	ClassServerScriptService  ClassName = "ServerScriptService"
	ClassAnimation            ClassName = "Animation"
	ClassUICorner             ClassName = "UICorner"
)

// classIsA is the static (tag, class-name) -> bool table backing IsA.
// Each class is-a itself and Instance; every GUI class additionally is-a
// "GuiBase", Frame/TextLabel/TextButton/ImageLabel/ImageButton are also
// "GuiObject", and the two buttons are also "GuiButton".
var classIsA = map[ClassName][]ClassName{
	ClassPart:               {ClassPart, ClassInstance},
	ClassModel:              {ClassModel, ClassInstance},
	ClassHumanoid:           {ClassHumanoid, ClassInstance},
	ClassPlayer:             {ClassPlayer, ClassInstance},
	ClassFolder:             {ClassFolder, ClassInstance},
	ClassWorkspace:          {ClassWorkspace, ClassInstance},
	ClassPlayers:            {ClassPlayers, ClassInstance},
	ClassRunService:         {ClassRunService, ClassInstance},
	ClassCamera:             {ClassCamera, ClassInstance},
	ClassWeld:               {ClassWeld, ClassInstance},
	ClassBillboardGui:       {ClassBillboardGui, ClassInstance, "GuiBase"},
	ClassPlayerGui:          {ClassPlayerGui, ClassInstance, "GuiBase"},
	ClassScreenGui:          {ClassScreenGui, ClassInstance, "GuiBase"},
	ClassFrame:              {ClassFrame, ClassInstance, "GuiObject", "GuiBase"},
	ClassTextLabel:          {ClassTextLabel, ClassInstance, "GuiObject", "GuiBase"},
	ClassTextButton:         {ClassTextButton, ClassInstance, "GuiObject", "GuiBase", "GuiButton"},
	ClassImageLabel:         {ClassImageLabel, ClassInstance, "GuiObject", "GuiBase"},
	ClassImageButton:        {ClassImageButton, ClassInstance, "GuiObject", "GuiBase", "GuiButton"},
	ClassScript:             {ClassScript, ClassInstance},
	ClassModuleScript:       {ClassModuleScript, ClassInstance},
	ClassServerScriptService: {ClassServerScriptService, ClassInstance},
	ClassAnimation:          {ClassAnimation, ClassInstance},
	ClassUICorner:           {ClassUICorner, ClassInstance},
	ClassInstance:           {ClassInstance},
}

// IsA reports whether class satisfies the named class or category.
func IsA(class ClassName, name string) bool {
	for _, tag := range classIsA[class] {
		if string(tag) == name {
			return true
		}
	}
	return class == ClassName(name)
}

// ValidClass reports whether tag is a known, constructible class tag.
func ValidClass(tag ClassName) bool {
	_, ok := classIsA[tag]
	return ok
}
