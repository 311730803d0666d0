package service

import (
	"context"
	"testing"
	"time"

	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPreviewFixture(t *testing.T) (*fixture, *PreviewService, func(time.Duration)) {
	f := newFixture(t)
	mr, rdb := newTestRedis(t)
	svc := NewPreviewService(newRenderer(), f.templates, rdb, time.Minute, "https://quiz.example.com/")
	return f, svc, mr.FastForward
}

func TestPreviewRender_UnknownTemplateShowsDiagnostic(t *testing.T) {
	_, svc, _ := newPreviewFixture(t)

	html, err := svc.Render(context.Background(), PurposePreview, PreviewRequest{TemplateID: "ghost", Name: "Quiz"})
	require.NoError(t, err)
	assert.Contains(t, html, render.NoTemplateMessage)

	html, err = svc.Render(context.Background(), PurposePreview, PreviewRequest{Name: "Quiz"})
	require.NoError(t, err)
	assert.Contains(t, html, render.NoTemplateMessage)
}

func TestPreviewRender_MissingSlotIsValidationError(t *testing.T) {
	f, svc, _ := newPreviewFixture(t)
	tpl, err := f.templates.Create(alice, TemplateInput{Name: ptr("Bare"), HTMLContent: ptr("<p>no data</p>")})
	require.NoError(t, err)

	_, err = svc.Render(context.Background(), PurposePreview, PreviewRequest{TemplateID: tpl.ID})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "templateId")
}

func TestPreviewRender_UsesUnsavedContent(t *testing.T) {
	f, svc, _ := newPreviewFixture(t)
	tpl := f.template(t, alice, "Look")

	html, err := svc.Render(context.Background(), PurposePreview, PreviewRequest{
		TemplateID:     tpl.ID,
		Name:           "Draft quiz",
		QuizEndMessage: "Done: {score}",
		Questions: []model.Question{
			{ID: "q1", Type: model.MultipleChoiceText, Text: "Unsaved question", Body: model.MultipleChoice{
				Options: []model.Option{{ID: "a", Text: "yes", IsCorrect: true}},
			}},
		},
		Theme: render.Theme{"--primary": "10 10% 10%"},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Unsaved question")
	assert.Contains(t, html, "Draft quiz")
	assert.Contains(t, html, "Done: {score}")
	assert.Contains(t, html, "--primary:10 10% 10%")
}

func TestRenderTest_UsesSavedTemplate(t *testing.T) {
	f, svc, _ := newPreviewFixture(t)
	tpl := f.template(t, alice, "Look")
	test := f.test(t, alice, "Saved quiz", &tpl.ID)

	html, err := svc.RenderTest(context.Background(), PurposePlayer, test)
	require.NoError(t, err)
	assert.Contains(t, html, "Saved quiz")
	assert.Contains(t, html, `id="app"`)
}

func TestPopout_ServedOnce(t *testing.T) {
	_, svc, _ := newPreviewFixture(t)
	ctx := context.Background()

	popout, err := svc.CreatePopout(ctx, "<html>hello</html>")
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example.com/preview/"+popout.Token, popout.URL)
	assert.NotContains(t, popout.Token, "-")

	html, err := svc.TakePopout(ctx, popout.Token)
	require.NoError(t, err)
	assert.Equal(t, "<html>hello</html>", html)

	_, err = svc.TakePopout(ctx, popout.Token)
	assert.ErrorIs(t, err, util.ErrPreviewExpired)
}

func TestPopout_Expires(t *testing.T) {
	_, svc, fastForward := newPreviewFixture(t)
	ctx := context.Background()

	popout, err := svc.CreatePopout(ctx, "<html></html>")
	require.NoError(t, err)

	fastForward(2 * time.Minute)
	_, err = svc.TakePopout(ctx, popout.Token)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestEmbedSnippet_UsesTrimmedBaseURL(t *testing.T) {
	_, svc, _ := newPreviewFixture(t)
	snippet := svc.EmbedSnippet("abc")
	assert.Contains(t, snippet, `src="https://quiz.example.com/play/abc"`)
}
