package model

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	MultipleChoiceText  QuestionType = "multiple-choice-text"
	MultipleChoiceImage QuestionType = "multiple-choice-image"
	MatchingTextText    QuestionType = "matching-text-text"
	DragAndDropTextText QuestionType = "drag-and-drop-text-text"
	CategorizationType  QuestionType = "categorization"
	ConnectPointsType   QuestionType = "connect-points"
)

// QuestionTypes 所有支持的题型，顺序与编辑器下拉框一致
var QuestionTypes = []QuestionType{
	MultipleChoiceText,
	MultipleChoiceImage,
	MatchingTextText,
	DragAndDropTextText,
	CategorizationType,
	ConnectPointsType,
}

func (t QuestionType) Valid() bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl,omitempty"`
	IsCorrect bool   `json:"isCorrect"`
}

// Pair 连线题和匹配题共用的左右文本对
type Pair struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type DragItem struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	CorrectCategoryID string `json:"correctCategoryId,omitempty"`
}

type DropTarget struct {
	ID                 string `json:"id"`
	Text               string `json:"text"`
	ExpectedDragItemID string `json:"expectedDragItemId,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionBody 题型专属内容，只能是本包定义的几种变体
type QuestionBody interface {
	Clone() QuestionBody
	isQuestionBody()
}

type MultipleChoice struct {
	AllowMultipleAnswers bool
	Options              []Option
}

type Matching struct {
	Pairs []Pair
}

type DragAndDrop struct {
	Items   []DragItem
	Targets []DropTarget
}

type Categorization struct {
	Categories []Category
	Items      []DragItem
}

type ConnectPoints struct {
	Pairs []Pair
}

func (MultipleChoice) isQuestionBody() {}
func (Matching) isQuestionBody()       {}
func (DragAndDrop) isQuestionBody()    {}
func (Categorization) isQuestionBody() {}
func (ConnectPoints) isQuestionBody()  {}

func (b MultipleChoice) Clone() QuestionBody {
	return MultipleChoice{AllowMultipleAnswers: b.AllowMultipleAnswers, Options: cloneSlice(b.Options)}
}

func (b Matching) Clone() QuestionBody {
	return Matching{Pairs: cloneSlice(b.Pairs)}
}

func (b DragAndDrop) Clone() QuestionBody {
	return DragAndDrop{Items: cloneSlice(b.Items), Targets: cloneSlice(b.Targets)}
}

func (b Categorization) Clone() QuestionBody {
	return Categorization{Categories: cloneSlice(b.Categories), Items: cloneSlice(b.Items)}
}

func (b ConnectPoints) Clone() QuestionBody {
	return ConnectPoints{Pairs: cloneSlice(b.Pairs)}
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Question 题目：公共字段 + 按 Type 选择的题型内容
type Question struct {
	ID   string
	Type QuestionType
	Text string
	Body QuestionBody
}

// Clone 深拷贝题目
func (q Question) Clone() Question {
	out := q
	if q.Body != nil {
		out.Body = q.Body.Clone()
	}
	return out
}

// NewBody 返回题型的默认内容
func NewBody(t QuestionType) QuestionBody {
	switch t {
	case MultipleChoiceText, MultipleChoiceImage:
		return MultipleChoice{Options: []Option{
			{ID: GenerateUUID(), Text: "Option 1", IsCorrect: true},
			{ID: GenerateUUID(), Text: "Option 2"},
		}}
	case MatchingTextText:
		return Matching{Pairs: []Pair{{ID: GenerateUUID()}}}
	case DragAndDropTextText:
		itemID := GenerateUUID()
		return DragAndDrop{
			Items:   []DragItem{{ID: itemID}},
			Targets: []DropTarget{{ID: GenerateUUID(), ExpectedDragItemID: itemID}},
		}
	case CategorizationType:
		return Categorization{
			Categories: []Category{{ID: GenerateUUID(), Name: "Category 1"}},
		}
	case ConnectPointsType:
		return ConnectPoints{Pairs: []Pair{{ID: GenerateUUID()}}}
	}
	return nil
}

// questionWire 线上 JSON 格式：题型字段与公共字段平铺
type questionWire struct {
	ID                   string        `json:"id"`
	Type                 QuestionType  `json:"type"`
	Text                 string        `json:"text"`
	AllowMultipleAnswers *bool         `json:"allowMultipleAnswers,omitempty"`
	Options              *[]Option     `json:"options,omitempty"`
	MatchPairs           *[]Pair       `json:"matchPairs,omitempty"`
	DragItems            *[]DragItem   `json:"dragItems,omitempty"`
	DropTargets          *[]DropTarget `json:"dropTargets,omitempty"`
	Categories           *[]Category   `json:"categories,omitempty"`
	ConnectPairs         *[]Pair       `json:"connectPairs,omitempty"`
}

func nonNil[T any](s []T) *[]T {
	if s == nil {
		s = []T{}
	}
	return &s
}

func valueOf[T any](p *[]T) []T {
	if p == nil {
		return []T{}
	}
	return *p
}

func (q Question) MarshalJSON() ([]byte, error) {
	w := questionWire{ID: q.ID, Type: q.Type, Text: q.Text}
	switch b := q.Body.(type) {
	case MultipleChoice:
		allow := b.AllowMultipleAnswers
		w.AllowMultipleAnswers = &allow
		w.Options = nonNil(b.Options)
	case Matching:
		w.MatchPairs = nonNil(b.Pairs)
	case DragAndDrop:
		w.DragItems = nonNil(b.Items)
		w.DropTargets = nonNil(b.Targets)
	case Categorization:
		w.Categories = nonNil(b.Categories)
		w.DragItems = nonNil(b.Items)
	case ConnectPoints:
		w.ConnectPairs = nonNil(b.Pairs)
	}
	return json.Marshal(w)
}

// UnmarshalJSON 按 type 选择题型，其他题型的字段被丢弃
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Question{ID: w.ID, Type: w.Type, Text: w.Text}
	switch w.Type {
	case MultipleChoiceText, MultipleChoiceImage:
		mc := MultipleChoice{Options: valueOf(w.Options)}
		if w.AllowMultipleAnswers != nil {
			mc.AllowMultipleAnswers = *w.AllowMultipleAnswers
		}
		if w.Type == MultipleChoiceText {
			for i := range mc.Options {
				mc.Options[i].ImageURL = ""
			}
		}
		out.Body = mc
	case MatchingTextText:
		out.Body = Matching{Pairs: valueOf(w.MatchPairs)}
	case DragAndDropTextText:
		items := valueOf(w.DragItems)
		for i := range items {
			items[i].CorrectCategoryID = ""
		}
		out.Body = DragAndDrop{Items: items, Targets: valueOf(w.DropTargets)}
	case CategorizationType:
		out.Body = Categorization{Categories: valueOf(w.Categories), Items: valueOf(w.DragItems)}
	case ConnectPointsType:
		out.Body = ConnectPoints{Pairs: valueOf(w.ConnectPairs)}
	default:
		return fmt.Errorf("unknown question type %q", w.Type)
	}

	*q = out
	return nil
}
