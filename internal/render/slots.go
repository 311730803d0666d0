package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Slot 渲染结果中注入数据的具名位置
type Slot string

const (
	SlotQuestions  Slot = "questions"
	SlotQuizName   Slot = "quiz-name"
	SlotEndMessage Slot = "end-message"
)

// SlotAttr 模板可以用 data-quiz-slot="<slot>" 声明自己消费某个槽位
const SlotAttr = "data-quiz-slot"

// SlotSpec 槽位约定：元素 ID、内容类型、是否必需
type SlotSpec struct {
	Name      Slot
	ElementID string
	Content   string
	Required  bool
}

// Schema 渲染器注入的全部槽位，顺序即输出顺序
var Schema = []SlotSpec{
	{Name: SlotQuestions, ElementID: "quiz-data", Content: "application/json", Required: true},
	{Name: SlotQuizName, ElementID: "quiz-name", Content: "text/plain"},
	{Name: SlotEndMessage, ElementID: "quiz-end-message", Content: "text/plain"},
}

// ScorePlaceholder 结束语中的分数占位符，由播放端替换
const ScorePlaceholder = "{score}"

// SlotError 模板没有引用必需槽位，或自身元素占用了渲染器的标记 ID
type SlotError struct {
	Missing     []Slot
	Conflicting []Slot
}

func (e *SlotError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "template does not reference required slots: "+joinSlots(e.Missing))
	}
	if len(e.Conflicting) > 0 {
		parts = append(parts, "template elements reuse reserved slot ids: "+joinSlots(e.Conflicting))
	}
	return strings.Join(parts, "; ")
}

func joinSlots(slots []Slot) string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// slotScan 一次扫描模板 HTML 的结果
type slotScan struct {
	referenced map[Slot]bool
	conflicts  map[Slot]bool
}

func scanSlots(templateHTML string) slotScan {
	scan := slotScan{referenced: make(map[Slot]bool), conflicts: make(map[Slot]bool)}
	byID := make(map[string]Slot, len(Schema))
	for _, s := range Schema {
		byID[s.ElementID] = s.Name
	}

	z := html.NewTokenizer(strings.NewReader(templateHTML))
	inScript := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return scan
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "script" && tt == html.StartTagToken {
				inScript = true
			}
			for _, a := range tok.Attr {
				switch a.Key {
				case "id":
					// 标记元素由渲染器输出，同 ID 的模板元素会先被 getElementById 命中
					if s, ok := byID[a.Val]; ok {
						scan.conflicts[s] = true
					}
				case SlotAttr:
					for _, spec := range Schema {
						if string(spec.Name) == a.Val {
							scan.referenced[spec.Name] = true
						}
					}
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = false
			}
		case html.TextToken:
			if !inScript {
				continue
			}
			text := string(z.Text())
			for id, s := range byID {
				if strings.Contains(text, id) {
					scan.referenced[s] = true
				}
			}
		}
	}
}

// ReferencedSlots 返回模板引用到的槽位。
// 只有 data-quiz-slot 属性和内联脚本文本中出现的元素 ID 算引用。
func ReferencedSlots(templateHTML string) map[Slot]bool {
	return scanSlots(templateHTML).referenced
}

// CheckSlots 模板缺少必需槽位或占用了标记 ID 时返回 *SlotError，否则返回 nil
func CheckSlots(templateHTML string) error {
	scan := scanSlots(templateHTML)
	var missing, conflicting []Slot
	for _, s := range Schema {
		if s.Required && !scan.referenced[s.Name] {
			missing = append(missing, s.Name)
		}
		if scan.conflicts[s.Name] {
			conflicting = append(conflicting, s.Name)
		}
	}
	if len(missing) > 0 || len(conflicting) > 0 {
		return &SlotError{Missing: missing, Conflicting: conflicting}
	}
	return nil
}
