package quizdoc

import (
	"fmt"
	"quizsmith/internal/model"
)

// updateChoice 对选择题内容执行 fn，非选择题不变
func updateChoice(questions []model.Question, questionID string, fn func(q *model.Question, mc *model.MultipleChoice)) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		mc, ok := q.Body.(model.MultipleChoice)
		if !ok {
			return
		}
		fn(q, &mc)
		q.Body = mc
	})
}

func findOption(options []model.Option, optionID string) int {
	for i := range options {
		if options[i].ID == optionID {
			return i
		}
	}
	return -1
}

// AddOption 追加一个空选项，返回新选项 ID
func AddOption(questions []model.Question, questionID string) ([]model.Question, string) {
	var newID string
	out := updateChoice(questions, questionID, func(_ *model.Question, mc *model.MultipleChoice) {
		newID = model.GenerateUUID()
		mc.Options = append(mc.Options, model.Option{
			ID:   newID,
			Text: fmt.Sprintf("Option %d", len(mc.Options)+1),
		})
	})
	return out, newID
}

// RemoveOption 删除选项；只剩一个选项时不做任何修改
func RemoveOption(questions []model.Question, questionID, optionID string) []model.Question {
	return updateChoice(questions, questionID, func(_ *model.Question, mc *model.MultipleChoice) {
		if len(mc.Options) <= 1 {
			return
		}
		if i := findOption(mc.Options, optionID); i >= 0 {
			mc.Options = append(mc.Options[:i], mc.Options[i+1:]...)
		}
	})
}

// UpdateOption 修改选项文本或图片地址；文字选择题忽略图片地址
func UpdateOption(questions []model.Question, questionID, optionID string, field Field, value string) []model.Question {
	return updateChoice(questions, questionID, func(q *model.Question, mc *model.MultipleChoice) {
		i := findOption(mc.Options, optionID)
		if i < 0 {
			return
		}
		switch field {
		case FieldText:
			mc.Options[i].Text = value
		case FieldImageURL:
			if q.Type == model.MultipleChoiceImage {
				mc.Options[i].ImageURL = value
			}
		}
	})
}

// SetOptionCorrect 设置选项是否正确。
// 单选模式下标记正确会先清除其他选项；多选模式下只改变目标选项。
func SetOptionCorrect(questions []model.Question, questionID, optionID string, correct bool) []model.Question {
	return updateChoice(questions, questionID, func(_ *model.Question, mc *model.MultipleChoice) {
		i := findOption(mc.Options, optionID)
		if i < 0 {
			return
		}
		if correct && !mc.AllowMultipleAnswers {
			for j := range mc.Options {
				mc.Options[j].IsCorrect = false
			}
		}
		mc.Options[i].IsCorrect = correct
	})
}

// SetAllowMultipleAnswers 切换多选模式；关闭时只保留按顺序第一个正确选项
func SetAllowMultipleAnswers(questions []model.Question, questionID string, allow bool) []model.Question {
	return updateChoice(questions, questionID, func(_ *model.Question, mc *model.MultipleChoice) {
		mc.AllowMultipleAnswers = allow
		if allow {
			return
		}
		seen := false
		for j := range mc.Options {
			if mc.Options[j].IsCorrect {
				if seen {
					mc.Options[j].IsCorrect = false
				}
				seen = true
			}
		}
	})
}
