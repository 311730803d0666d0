package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/repository"
	"quizsmith/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTemplateCreate_RequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.templates.Create(alice, TemplateInput{Name: ptr("   ")})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestTemplateList_FiltersByKeywordAndTag(t *testing.T) {
	f := newFixture(t)
	_, err := f.templates.Create(alice, TemplateInput{Name: ptr("Ocean"), Tags: []string{"blue", "calm"}})
	require.NoError(t, err)
	_, err = f.templates.Create(alice, TemplateInput{Name: ptr("Forest"), Tags: []string{"green"}})
	require.NoError(t, err)
	_, err = f.templates.Create(alice, TemplateInput{Name: ptr("Sky"), Tags: []string{"bluebird"}})
	require.NoError(t, err)

	byTag, err := f.templates.List(repository.TemplateFilter{Tag: "blue"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Ocean", byTag[0].Name)

	byKeyword, err := f.templates.List(repository.TemplateFilter{Keyword: "ore"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Forest", byKeyword[0].Name)
}

func TestTemplateGet_MissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.templates.Get("does-not-exist")
	assert.ErrorIs(t, err, util.ErrNotFound)

	tpl, err := f.templates.Resolve(ptr("does-not-exist"))
	assert.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestTemplateUpdate_OnlyCreatorOrAdmin(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, alice, "Mine")

	_, err := f.templates.Update(bob, tpl.ID, TemplateInput{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	stored, err := f.templates.Get(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", stored.Name)

	updated, err := f.templates.Update(root, tpl.ID, TemplateInput{Description: ptr("curated")})
	require.NoError(t, err)
	assert.Equal(t, "Mine", updated.Name)
	assert.Equal(t, "curated", updated.Description)
}

func TestTemplateDelete_RefusedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, alice, "Shared")
	test := f.test(t, alice, "Quiz", &tpl.ID)

	err := f.templates.Delete(alice, tpl.ID)
	var conflict *util.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "Shared")

	_, err = f.templates.Get(tpl.ID)
	require.NoError(t, err, "template must survive a refused delete")

	require.NoError(t, f.tests.Delete(alice, test.ID))
	require.NoError(t, f.templates.Delete(alice, tpl.ID))

	_, err = f.templates.Get(tpl.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestTemplateDelete_ForeignKeyRestrictsRawDelete(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, alice, "Pinned")
	test := f.test(t, alice, "Quiz", &tpl.ID)

	err := f.db.Delete(&model.PageTemplate{}, "id = ?", tpl.ID).Error
	require.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

	_, err = f.templates.Get(tpl.ID)
	require.NoError(t, err)
	got, err := f.tests.Get(alice, test.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TemplateID)
	assert.Equal(t, tpl.ID, *got.TemplateID)
}

func TestTestStore_RejectsDanglingTemplateID(t *testing.T) {
	f := newFixture(t)
	store := repository.NewTestRepository(f.db)

	err := store.Create(&model.Test{Name: "Orphan", UserID: alice.UserID, TemplateID: ptr("gone")})
	require.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

	var verr *util.ValidationError
	require.ErrorAs(t, templateRefError(err), &verr)
	assert.Equal(t, "unknown template", verr.Fields["templateId"])
}

func TestTemplateDelete_MissingIsNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.templates.Delete(alice, "nope")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestNewTemplateView_ReportsMissingSlots(t *testing.T) {
	f := newFixture(t)
	tpl, err := f.templates.Create(alice, TemplateInput{Name: ptr("Bare"), HTMLContent: ptr("<p>hi</p>")})
	require.NoError(t, err)

	view := NewTemplateView(tpl)
	assert.Equal(t, []render.Slot{render.SlotQuestions}, view.MissingSlots)

	ok := NewTemplateView(f.template(t, alice, "Complete"))
	assert.Empty(t, ok.MissingSlots)
	assert.Empty(t, ok.ConflictingSlots)

	shadow, err := f.templates.Create(alice, TemplateInput{Name: ptr("Shadow"), HTMLContent: ptr(`<div id="quiz-data"></div>` + slotHTML)})
	require.NoError(t, err)
	view = NewTemplateView(shadow)
	assert.Empty(t, view.MissingSlots)
	assert.Equal(t, []render.Slot{render.SlotQuestions}, view.ConflictingSlots)
}

func TestUploadPreviewImage(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, alice, "Pictured")
	ctx := context.Background()

	_, err := f.templates.UploadPreviewImage(ctx, alice, tpl.ID, "shot.exe", bytes.NewReader([]byte("x")), 1, "image/png")
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.templates.UploadPreviewImage(ctx, bob, tpl.ID, "shot.png", bytes.NewReader([]byte("x")), 1, "image/png")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	updated, err := f.templates.UploadPreviewImage(ctx, alice, tpl.ID, "shot.PNG", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Regexp(t, `^/uploads/templates/`+tpl.ID+`/\d+\.png$`, updated.PreviewImageURL)
}
