package types

// AspectRatio is the frame shape used for image prompts and image synthesis.
type AspectRatio string

const (
	AspectPortrait    AspectRatio = "9:16"
	AspectLandscape   AspectRatio = "16:9"
	AspectSquare      AspectRatio = "1:1"
	AspectClassic     AspectRatio = "4:3"
	AspectClassicTall AspectRatio = "3:4"
)

// AspectRatios lists every ratio the image model accepts, in display order.
var AspectRatios = []AspectRatio{AspectPortrait, AspectLandscape, AspectSquare, AspectClassic, AspectClassicTall}

// Valid reports whether a is one of AspectRatios.
func (a AspectRatio) Valid() bool {
	for _, r := range AspectRatios {
		if a == r {
			return true
		}
	}
	return false
}

const (
	MinDuration   = 15
	MaxDuration   = 180
	MinSceneCount = 3
	MaxSceneCount = 10
)

// Brief is the campaign input collected in the setup stage.
type Brief struct {
	Goal            string      `json:"goal" yaml:"goal" validate:"required"`
	Audience        string      `json:"audience" yaml:"audience" validate:"required"`
	UserInsights    string      `json:"userInsights" yaml:"user_insights" validate:"required"`
	VideoType       string      `json:"videoType" yaml:"video_type" validate:"required"`
	Platform        string      `json:"platform" yaml:"platform" validate:"required"`
	AspectRatio     AspectRatio `json:"aspectRatio" yaml:"aspect_ratio" validate:"required,aspect"`
	ScriptStructure string      `json:"scriptStructure" yaml:"script_structure" validate:"required"`
	VideoStyle      string      `json:"videoStyle" yaml:"video_style" validate:"required"`
	Duration        int         `json:"duration" yaml:"duration" validate:"min=15,max=180"`
	SceneCount      int         `json:"sceneCount" yaml:"scene_count" validate:"min=3,max=10"`
	CTA             string      `json:"cta" yaml:"cta" validate:"required"`
}

// DefaultBrief returns the brief a new project starts with. Free-text
// fields are empty; selectors carry their first option.
func DefaultBrief() Brief {
	return Brief{
		VideoType:       BriefOptions.VideoTypes[0],
		Platform:        BriefOptions.Platforms[0],
		AspectRatio:     AspectPortrait,
		ScriptStructure: BriefOptions.ScriptStructures[0],
		VideoStyle:      BriefOptions.VideoStyles[0],
		Duration:        90,
		SceneCount:      5,
	}
}

// Clamped returns b with its numeric fields forced into their bounds.
// Input decoders call it; the pipeline never does.
func (b Brief) Clamped() Brief {
	b.Duration = clamp(b.Duration, MinDuration, MaxDuration)
	b.SceneCount = clamp(b.SceneCount, MinSceneCount, MaxSceneCount)
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BriefOptions holds the choices offered for the selector fields of a brief.
var BriefOptions = struct {
	VideoTypes       []string
	Platforms        []string
	ScriptStructures []string
	VideoStyles      []string
}{
	VideoTypes: []string{"Hiệu suất", "Thương hiệu", "Giáo dục", "Giải trí"},
	Platforms:  []string{"TikTok", "Facebook", "Instagram", "YouTube", "LinkedIn"},
	ScriptStructures: []string{
		"PAS (Vấn đề-Khuấy động-Giải pháp)",
		"AIDA (Chú ý-Quan tâm-Mong muốn-Hành động)",
		"Story Telling (Kể chuyện)",
		"Trước & Sau",
		"Chiến lược Inside-Out (Giá trị cốt lõi)",
		"Mô hình ICEPERG (Tâm lý thuyết phục)",
		"AI tự do sáng tạo",
	},
	VideoStyles: []string{"Cung cấp thông tin", "Hài hước", "Truyền cảm hứng", "Kịch tính", "Tươi vui"},
}
