package quizdoc

import (
	"encoding/json"
	"errors"
	"fmt"

	"quizsmith/internal/model"
)

var (
	ErrUnknownOp = errors.New("unknown mutation op")
	ErrBadValue  = errors.New("invalid mutation value")
)

// Op 可序列化的修改操作名
type Op string

const (
	OpAddQuestion             Op = "addQuestion"
	OpRemoveQuestion          Op = "removeQuestion"
	OpMoveQuestion            Op = "moveQuestion"
	OpSetQuestionText         Op = "setQuestionText"
	OpChangeQuestionType      Op = "changeQuestionType"
	OpAddOption               Op = "addOption"
	OpRemoveOption            Op = "removeOption"
	OpUpdateOption            Op = "updateOption"
	OpSetOptionCorrect        Op = "setOptionCorrect"
	OpSetAllowMultipleAnswers Op = "setAllowMultipleAnswers"
	OpAddPair                 Op = "addPair"
	OpRemovePair              Op = "removePair"
	OpUpdatePair              Op = "updatePair"
	OpAddDragItem             Op = "addDragItem"
	OpRemoveDragItem          Op = "removeDragItem"
	OpUpdateDragItem          Op = "updateDragItem"
	OpAddDropTarget           Op = "addDropTarget"
	OpRemoveDropTarget        Op = "removeDropTarget"
	OpUpdateDropTarget        Op = "updateDropTarget"
	OpAddCategory             Op = "addCategory"
	OpRemoveCategory          Op = "removeCategory"
	OpUpdateCategory          Op = "updateCategory"
)

// Mutation 编辑器发送的单个修改
type Mutation struct {
	Op         Op              `json:"op" binding:"required"`
	QuestionID string          `json:"questionId"`
	ItemID     string          `json:"itemId"`
	Field      Field           `json:"field"`
	Value      json.RawMessage `json:"value" swaggertype:"object"`
}

func decodeValue[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("%w: missing value", ErrBadValue)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	return v, nil
}

// Apply 执行一次修改，返回新列表和新建元素的 ID（非新增操作时为空）
func Apply(questions []model.Question, m Mutation) ([]model.Question, string, error) {
	switch m.Op {
	case OpAddQuestion:
		t, err := decodeValue[model.QuestionType](m.Value)
		if err != nil {
			return nil, "", err
		}
		if !t.Valid() {
			return nil, "", fmt.Errorf("%w: unknown question type %q", ErrBadValue, t)
		}
		out, id := AddQuestion(questions, t)
		return out, id, nil
	case OpRemoveQuestion:
		return RemoveQuestion(questions, m.QuestionID), "", nil
	case OpMoveQuestion:
		delta, err := decodeValue[int](m.Value)
		if err != nil {
			return nil, "", err
		}
		return MoveQuestion(questions, m.QuestionID, delta), "", nil
	case OpSetQuestionText:
		return withString(m, func(v string) []model.Question {
			return SetQuestionText(questions, m.QuestionID, v)
		})
	case OpChangeQuestionType:
		t, err := decodeValue[model.QuestionType](m.Value)
		if err != nil {
			return nil, "", err
		}
		if !t.Valid() {
			return nil, "", fmt.Errorf("%w: unknown question type %q", ErrBadValue, t)
		}
		return ChangeQuestionType(questions, m.QuestionID, t), "", nil

	case OpAddOption:
		out, id := AddOption(questions, m.QuestionID)
		return out, id, nil
	case OpRemoveOption:
		return RemoveOption(questions, m.QuestionID, m.ItemID), "", nil
	case OpUpdateOption:
		if m.Field != FieldText && m.Field != FieldImageURL {
			return nil, "", badField(m)
		}
		return withString(m, func(v string) []model.Question {
			return UpdateOption(questions, m.QuestionID, m.ItemID, m.Field, v)
		})
	case OpSetOptionCorrect:
		correct, err := decodeValue[bool](m.Value)
		if err != nil {
			return nil, "", err
		}
		return SetOptionCorrect(questions, m.QuestionID, m.ItemID, correct), "", nil
	case OpSetAllowMultipleAnswers:
		allow, err := decodeValue[bool](m.Value)
		if err != nil {
			return nil, "", err
		}
		return SetAllowMultipleAnswers(questions, m.QuestionID, allow), "", nil

	case OpAddPair:
		out, id := AddPair(questions, m.QuestionID)
		return out, id, nil
	case OpRemovePair:
		return RemovePair(questions, m.QuestionID, m.ItemID), "", nil
	case OpUpdatePair:
		if m.Field != FieldLeft && m.Field != FieldRight {
			return nil, "", badField(m)
		}
		return withString(m, func(v string) []model.Question {
			return UpdatePair(questions, m.QuestionID, m.ItemID, m.Field, v)
		})

	case OpAddDragItem:
		out, id := AddDragItem(questions, m.QuestionID)
		return out, id, nil
	case OpRemoveDragItem:
		return RemoveDragItem(questions, m.QuestionID, m.ItemID), "", nil
	case OpUpdateDragItem:
		if m.Field != FieldText && m.Field != FieldCorrectCategoryID {
			return nil, "", badField(m)
		}
		return withString(m, func(v string) []model.Question {
			return UpdateDragItem(questions, m.QuestionID, m.ItemID, m.Field, v)
		})

	case OpAddDropTarget:
		out, id := AddDropTarget(questions, m.QuestionID)
		return out, id, nil
	case OpRemoveDropTarget:
		return RemoveDropTarget(questions, m.QuestionID, m.ItemID), "", nil
	case OpUpdateDropTarget:
		if m.Field != FieldText && m.Field != FieldExpectedDragItem {
			return nil, "", badField(m)
		}
		return withString(m, func(v string) []model.Question {
			return UpdateDropTarget(questions, m.QuestionID, m.ItemID, m.Field, v)
		})

	case OpAddCategory:
		out, id := AddCategory(questions, m.QuestionID)
		return out, id, nil
	case OpRemoveCategory:
		return RemoveCategory(questions, m.QuestionID, m.ItemID), "", nil
	case OpUpdateCategory:
		if m.Field != FieldName {
			return nil, "", badField(m)
		}
		return withString(m, func(v string) []model.Question {
			return UpdateCategory(questions, m.QuestionID, m.ItemID, m.Field, v)
		})
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownOp, m.Op)
}

func withString(m Mutation, fn func(v string) []model.Question) ([]model.Question, string, error) {
	v, err := decodeValue[string](m.Value)
	if err != nil {
		return nil, "", err
	}
	return fn(v), "", nil
}

func badField(m Mutation) error {
	return fmt.Errorf("%w: field %q not supported by %s", ErrBadValue, m.Field, m.Op)
}
