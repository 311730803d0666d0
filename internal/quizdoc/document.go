// Package quizdoc 测验文档的内存模型。
//
// 所有修改操作都是纯函数：接收当前题目列表、目标 ID、字段和新值，返回深拷贝后的新列表，
// 入参永远不会被修改。目标不存在时返回的新列表与原列表内容相同。
package quizdoc

import (
	"quizsmith/internal/model"
)

// Field 子元素字段选择器
type Field string

const (
	FieldText              Field = "text"
	FieldImageURL          Field = "imageUrl"
	FieldLeft              Field = "left"
	FieldRight             Field = "right"
	FieldName              Field = "name"
	FieldCorrectCategoryID Field = "correctCategoryId"
	FieldExpectedDragItem  Field = "expectedDragItemId"
)

// Clone 深拷贝题目列表
func Clone(questions []model.Question) []model.Question {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}

// Find 按 ID 查找题目下标
func Find(questions []model.Question, questionID string) int {
	for i := range questions {
		if questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// update 拷贝列表后对目标题目执行 fn
func update(questions []model.Question, questionID string, fn func(q *model.Question)) []model.Question {
	out := Clone(questions)
	if i := Find(out, questionID); i >= 0 {
		fn(&out[i])
	}
	return out
}

// NewQuestion 创建指定题型的空白题目
func NewQuestion(t model.QuestionType) model.Question {
	return model.Question{
		ID:   model.GenerateUUID(),
		Type: t,
		Body: model.NewBody(t),
	}
}

// AddQuestion 在末尾追加新题目，返回新列表和新题目 ID；题型非法时不追加
func AddQuestion(questions []model.Question, t model.QuestionType) ([]model.Question, string) {
	out := Clone(questions)
	if !t.Valid() {
		return out, ""
	}
	q := NewQuestion(t)
	return append(out, q), q.ID
}

func RemoveQuestion(questions []model.Question, questionID string) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID != questionID {
			out = append(out, q.Clone())
		}
	}
	return out
}

// MoveQuestion 将题目移动 delta 个位置，越界时停在两端
func MoveQuestion(questions []model.Question, questionID string, delta int) []model.Question {
	out := Clone(questions)
	from := Find(out, questionID)
	if from < 0 || delta == 0 {
		return out
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(out)-1 {
		to = len(out) - 1
	}

	q := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]model.Question{q}, out[to:]...)...)
	return out
}

func SetQuestionText(questions []model.Question, questionID, text string) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		q.Text = text
	})
}

// ChangeQuestionType 切换题型。文字选择题与图片选择题之间保留选项，其余情况重置为默认内容
func ChangeQuestionType(questions []model.Question, questionID string, t model.QuestionType) []model.Question {
	if !t.Valid() {
		return Clone(questions)
	}
	return update(questions, questionID, func(q *model.Question) {
		if q.Type == t {
			return
		}
		if mc, ok := q.Body.(model.MultipleChoice); ok && (t == model.MultipleChoiceText || t == model.MultipleChoiceImage) {
			if t == model.MultipleChoiceText {
				for i := range mc.Options {
					mc.Options[i].ImageURL = ""
				}
			}
			q.Type = t
			q.Body = mc
			return
		}
		q.Type = t
		q.Body = model.NewBody(t)
	})
}
