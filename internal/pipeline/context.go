package pipeline

// Phase tags carried on the context of every generation call.
const (
	PhaseInsights    = "insights"
	PhaseIdeas       = "ideas"
	PhaseScript      = "script"
	PhasePrompts     = "storyboard_prompts"
	PhaseScenePrompt = "scene_prompt"
	PhaseSceneImage  = "scene_image"
)

// DefaultProductContext describes the brands the generated content serves.
// It is prepended to the idea and script prompts.
const DefaultProductContext = `Bối cảnh sản phẩm: nội dung được tạo cho hai thương hiệu chăm sóc mẹ và bé Fysoline và Sachi. Trọng tâm chung là sản phẩm tự nhiên, an toàn, hiệu quả cho các vấn đề thường gặp ở trẻ sơ sinh và trẻ nhỏ.
Fysoline (nước muối sinh lý):
- Isotonic (hồng): vệ sinh mắt, mũi, rốn hằng ngày cho bé từ 0 tháng; ống đơn liều vô trùng, không chất bảo quản.
- Septinasal (vàng): khi bé sổ mũi, cảm cúm; cỏ xạ hương và đồng sulfat kháng khuẩn tự nhiên.
- Hypertonic (xanh): khi bé nghẹt mũi; nước muối ưu trương 2.3% giảm sưng, natri hyaluronat giữ ẩm.
Sachi (sản phẩm tự nhiên cho bé):
- Gạc răng miệng 0+: vệ sinh nướu, lưỡi; cúc La Mã, lô hội; mỗi gạc một gói màng nhôm.
- Tinh dầu tràm: giữ ấm, phòng cảm lạnh, đuổi côn trùng; tràm gió nguyên chất Quảng Trị - Huế.
- Nước tắm thảo dược: dịu nhẹ, ngừa rôm sảy; có lá tre non.
- Nước giặt xả Organic: 3 enzyme sinh học, an toàn cho da nhạy cảm.
- Xịt răng miệng Fibregum (1+ tuổi): ngừa sâu răng, giảm mảng bám; Fibregum P từ Pháp, an toàn khi nuốt, không flour.
- Kem đánh răng tạo bọt Postbiotics (12+ tháng): bọt mịn làm sạch kẽ răng; Totipro Postbiotics PE0301, không flour.
Hãy xuất phát từ vấn đề thật của người dùng (bé nghẹt mũi, mẹ lo hóa chất trong nước giặt, vệ sinh răng miệng cho bé sơ sinh) và giới thiệu sản phẩm như một giải pháp đáng tin cậy.`

// structureGlossary explains each script structure offered in the brief.
var structureGlossary = []string{
	"PAS (Vấn đề-Khuấy động-Giải pháp): nêu vấn đề, khuấy động cảm xúc tiêu cực quanh vấn đề, rồi đưa ra giải pháp.",
	"AIDA (Chú ý-Quan tâm-Mong muốn-Hành động): thu hút chú ý, tạo quan tâm, khơi mong muốn sở hữu, kết thúc bằng lời kêu gọi hành động rõ ràng.",
	"Story Telling (Kể chuyện): câu chuyện có nhân vật, bối cảnh và diễn biến mở đầu, cao trào, kết thúc để truyền tải thông điệp dễ nhớ.",
	"Trước & Sau: thể hiện rõ tình trạng trước khi dùng sản phẩm và kết quả đáng mơ ước sau khi dùng.",
	"Chiến lược Inside-Out (Giá trị cốt lõi): kể về sứ mệnh và giá trị của thương hiệu, vì sao thương hiệu tồn tại, để xây niềm tin lâu dài.",
	"Mô hình ICEPERG (Tâm lý thuyết phục): Issue, Consequence, Emotion, Proof, Edge, Resolution, Gain theo đúng thứ tự.",
	"AI tự do sáng tạo: tự phân tích các thông số chiến lược rồi chọn hoặc tạo cấu trúc hiệu quả nhất.",
}

// storyboardRules are the image-prompt rules applied to every scene.
var storyboardRules = []string{
	"Write every prompt in ENGLISH; the source scenes are Vietnamese.",
	"The image must feel like a candid, authentic slice-of-life photograph of a modern Vietnamese family, never staged or stock-like.",
	"Every human subject is explicitly Vietnamese (Vietnamese mother, Vietnamese baby, young Vietnamese couple).",
	"Settings and props reflect modern Vietnam, e.g. a cozy Ho Chi Minh City apartment or a busy Hanoi street market.",
	"Any visible text (signs, documents, captions) is in Vietnamese and the prompt says so.",
	"Each prompt is one plain-text block without markdown, using these headings on separate lines: Subject/Theme, Emotion, Environment, Lighting, Color Palette, Camera & Composition, Quality & Style.",
}
