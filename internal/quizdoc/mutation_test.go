package quizdoc

import (
	"encoding/json"
	"testing"

	"quizsmith/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestApplySequence(t *testing.T) {
	qs, qid, err := Apply(nil, Mutation{Op: OpAddQuestion, Value: raw(t, model.MultipleChoiceText)})
	require.NoError(t, err)
	require.NotEmpty(t, qid)

	qs, oid, err := Apply(qs, Mutation{Op: OpAddOption, QuestionID: qid})
	require.NoError(t, err)

	qs, _, err = Apply(qs, Mutation{Op: OpUpdateOption, QuestionID: qid, ItemID: oid, Field: FieldText, Value: raw(t, "Three")})
	require.NoError(t, err)
	qs, _, err = Apply(qs, Mutation{Op: OpSetOptionCorrect, QuestionID: qid, ItemID: oid, Value: raw(t, true)})
	require.NoError(t, err)

	opts := options(t, qs, qid)
	require.Len(t, opts, 3)
	assert.Equal(t, "Three", opts[2].Text)
	assert.Equal(t, 1, correctCount(opts))
	assert.True(t, opts[2].IsCorrect)
}

func TestApplyErrors(t *testing.T) {
	qs := []model.Question{choiceQuestion("q1", false, true, false)}

	_, _, err := Apply(qs, Mutation{Op: "explode"})
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, _, err = Apply(qs, Mutation{Op: OpSetOptionCorrect, QuestionID: "q1", ItemID: "a", Value: raw(t, "yes")})
	assert.ErrorIs(t, err, ErrBadValue)

	_, _, err = Apply(qs, Mutation{Op: OpUpdateOption, QuestionID: "q1", ItemID: "a", Field: FieldName, Value: raw(t, "x")})
	assert.ErrorIs(t, err, ErrBadValue)

	_, _, err = Apply(qs, Mutation{Op: OpAddQuestion, Value: raw(t, "essay")})
	assert.ErrorIs(t, err, ErrBadValue)

	_, _, err = Apply(qs, Mutation{Op: OpSetQuestionText, QuestionID: "q1"})
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate([]model.Question{choiceQuestion("q1", false, true, false)}))

	bad := []model.Question{
		choiceQuestion("q1", false, true, true),
		{ID: "q1", Type: model.MultipleChoiceText, Body: model.MultipleChoice{}},
		{ID: "q3", Type: model.DragAndDropTextText, Body: model.DragAndDrop{
			Items:   []model.DragItem{{ID: "i1"}},
			Targets: []model.DropTarget{{ID: "t1", ExpectedDragItemID: "gone"}},
		}},
		{ID: "q4", Type: "essay"},
	}
	problems := Validate(bad)
	assert.Contains(t, problems, "questions[0].options")
	assert.Contains(t, problems, "questions[1].id")
	assert.Contains(t, problems, "questions[1].options")
	assert.Contains(t, problems, "questions[2].dropTargets[0].expectedDragItemId")
	assert.Contains(t, problems, "questions[3].type")
}

func TestValidateScopesItemIDsToTheirCollection(t *testing.T) {
	qs := []model.Question{
		choiceQuestion("q1", false, true, false),
		choiceQuestion("q2", false, false, true),
		{ID: "q3", Type: model.CategorizationType, Body: model.Categorization{
			Categories: []model.Category{{ID: "a"}},
			Items:      []model.DragItem{{ID: "a", CorrectCategoryID: "a"}},
		}},
	}
	assert.Empty(t, Validate(qs))

	qs[1].Body = model.MultipleChoice{Options: []model.Option{{ID: "a", IsCorrect: true}, {ID: "a"}}}
	problems := Validate(qs)
	assert.Contains(t, problems, "questions[1].options[1].id")
	assert.NotContains(t, problems, "questions[1].options[0].id")
}
