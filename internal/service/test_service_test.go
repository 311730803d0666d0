package service

import (
	"encoding/json"
	"testing"

	"quizsmith/internal/model"
	"quizsmith/internal/quizdoc"
	"quizsmith/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mutation(op quizdoc.Op, questionID string, value interface{}) quizdoc.Mutation {
	m := quizdoc.Mutation{Op: op, QuestionID: questionID}
	if value != nil {
		raw, _ := json.Marshal(value)
		m.Value = raw
	}
	return m
}

func TestTestCreate_ValidatesNameAndTemplate(t *testing.T) {
	f := newFixture(t)

	_, err := f.tests.Create(alice, TestInput{TemplateID: ptr("ghost")})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "templateId")
}

func TestTestCreate_RejectsMalformedQuestions(t *testing.T) {
	f := newFixture(t)
	questions := []model.Question{
		{ID: "q1", Type: model.MultipleChoiceText, Body: model.MultipleChoice{Options: []model.Option{
			{ID: "a", IsCorrect: true}, {ID: "b", IsCorrect: true},
		}}},
	}

	_, err := f.tests.Create(alice, TestInput{Name: ptr("Bad"), Questions: &questions})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "questions[0].options")
}

func TestTestCreate_OptionIDsRepeatAcrossQuestions(t *testing.T) {
	f := newFixture(t)
	options := func(correct string) model.MultipleChoice {
		return model.MultipleChoice{Options: []model.Option{
			{ID: "a", Text: "yes", IsCorrect: correct == "a"},
			{ID: "b", Text: "no", IsCorrect: correct == "b"},
		}}
	}
	questions := []model.Question{
		{ID: "q1", Type: model.MultipleChoiceText, Text: "first", Body: options("a")},
		{ID: "q2", Type: model.MultipleChoiceText, Text: "second", Body: options("b")},
	}

	test, err := f.tests.Create(alice, TestInput{Name: ptr("Twins"), Questions: &questions})
	require.NoError(t, err)
	require.Len(t, test.QuestionList(), 2)

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	mc, ok := got.QuestionList()[1].Body.(model.MultipleChoice)
	require.True(t, ok)
	assert.True(t, mc.Options[1].IsCorrect)
}

func TestTestGet_OwnerChecks(t *testing.T) {
	f := newFixture(t)
	test := f.test(t, alice, "Private", nil)

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Name)
	assert.Empty(t, got.QuestionList())

	_, err = f.tests.Get(bob, test.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.tests.Get(alice, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)

	public, err := f.tests.GetPublic(test.ID)
	require.NoError(t, err)
	assert.Equal(t, test.ID, public.ID)
}

func TestTestUpdate_NonOwnerLeavesRecordUnchanged(t *testing.T) {
	f := newFixture(t)
	test := f.test(t, alice, "Original", nil)

	_, err := f.tests.Update(bob, test.ID, TestInput{Name: ptr("Hijacked")})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	err = f.tests.Delete(bob, test.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Name)
}

func TestTestUpdate_PartialFieldsAndTemplateDetach(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, alice, "Look")
	test := f.test(t, alice, "Quiz", &tpl.ID)

	updated, err := f.tests.Update(alice, test.ID, TestInput{QuizEndMessage: ptr("You got {score}")})
	require.NoError(t, err)
	assert.Equal(t, "Quiz", updated.Name)
	require.NotNil(t, updated.TemplateID)
	assert.Equal(t, tpl.ID, *updated.TemplateID)

	updated, err = f.tests.Update(alice, test.ID, TestInput{TemplateID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.TemplateID)

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TemplateID)
	assert.Equal(t, "You got {score}", got.QuizEndMessage)
}

func TestTestList_OnlyOwnTests(t *testing.T) {
	f := newFixture(t)
	f.test(t, alice, "A1", nil)
	f.test(t, alice, "A2", nil)
	f.test(t, bob, "B1", nil)

	tests, total, err := f.tests.List(alice, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, tests, 2)
	for _, test := range tests {
		assert.Equal(t, alice.UserID, test.UserID)
	}
}

func TestApplyMutations_PersistsResult(t *testing.T) {
	f := newFixture(t)
	test := f.test(t, alice, "Quiz", nil)

	res, err := f.tests.ApplyMutations(alice, test.ID, []quizdoc.Mutation{
		mutation(quizdoc.OpAddQuestion, "", model.MultipleChoiceText),
	})
	require.NoError(t, err)
	require.Len(t, res.CreatedIDs, 1)
	qid := res.CreatedIDs[0]
	require.NotEmpty(t, qid)

	res, err = f.tests.ApplyMutations(alice, test.ID, []quizdoc.Mutation{
		mutation(quizdoc.OpSetQuestionText, qid, "Capital of France?"),
		mutation(quizdoc.OpAddOption, qid, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "", res.CreatedIDs[0])
	assert.NotEmpty(t, res.CreatedIDs[1])

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	questions := got.QuestionList()
	require.Len(t, questions, 1)
	assert.Equal(t, "Capital of France?", questions[0].Text)
	mc, ok := questions[0].Body.(model.MultipleChoice)
	require.True(t, ok)
	assert.Len(t, mc.Options, 3)
}

func TestApplyMutations_BadMutationDiscardsBatch(t *testing.T) {
	f := newFixture(t)
	test := f.test(t, alice, "Quiz", nil)

	_, err := f.tests.ApplyMutations(alice, test.ID, []quizdoc.Mutation{
		mutation(quizdoc.OpAddQuestion, "", model.CategorizationType),
		mutation(quizdoc.OpAddQuestion, "", "essay"),
	})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "mutations[1]")

	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	assert.Empty(t, got.QuestionList())
}

func TestApplyMutations_NonOwner(t *testing.T) {
	f := newFixture(t)
	test := f.test(t, alice, "Quiz", nil)

	_, err := f.tests.ApplyMutations(bob, test.ID, []quizdoc.Mutation{
		mutation(quizdoc.OpAddQuestion, "", model.MultipleChoiceText),
	})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}
