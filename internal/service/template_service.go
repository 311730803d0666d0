package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/repository"
	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TemplateInput 创建或修改模板的字段；修改时 nil 字段保持不变
type TemplateInput struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	HTMLContent *string  `json:"htmlContent"`
	CSSContent  *string  `json:"cssContent"`
	Tags        []string `json:"tags"`
	AIHint      *string  `json:"aiHint"`
}

// TemplateView 模板响应，附带槽位检查结果
type TemplateView struct {
	model.PageTemplate
	TagList      []string      `json:"tagList"`
	MissingSlots     []render.Slot `json:"missingSlots"`
	ConflictingSlots []render.Slot `json:"conflictingSlots"`
}

func NewTemplateView(tpl *model.PageTemplate) TemplateView {
	view := TemplateView{
		PageTemplate:     *tpl,
		TagList:          tpl.TagList(),
		MissingSlots:     []render.Slot{},
		ConflictingSlots: []render.Slot{},
	}
	var slotErr *render.SlotError
	if errors.As(render.CheckSlots(tpl.HTMLContent), &slotErr) {
		if slotErr.Missing != nil {
			view.MissingSlots = slotErr.Missing
		}
		if slotErr.Conflicting != nil {
			view.ConflictingSlots = slotErr.Conflicting
		}
	}
	return view
}

type TemplateService struct {
	Store   TemplateStore
	Storage *StorageService
}

func NewTemplateService(store TemplateStore, storage *StorageService) *TemplateService {
	return &TemplateService{Store: store, Storage: storage}
}

func (s *TemplateService) List(filter repository.TemplateFilter) ([]model.PageTemplate, error) {
	return s.Store.List(filter)
}

func (s *TemplateService) Get(id string) (*model.PageTemplate, error) {
	tpl, err := s.Store.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

// Resolve 查找模板，ID 为空或不存在时返回 nil 而不是错误
func (s *TemplateService) Resolve(id *string) (*model.PageTemplate, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	tpl, err := s.Get(*id)
	if errors.Is(err, util.ErrNotFound) {
		return nil, nil
	}
	return tpl, err
}

func (s *TemplateService) Create(caller Caller, input TemplateInput) (*model.PageTemplate, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, util.NewValidationError("name", "is required")
	}

	tpl := &model.PageTemplate{CreatorID: caller.UserID}
	applyTemplateInput(tpl, input)

	if err := s.Store.Create(tpl); err != nil {
		return nil, err
	}
	logger.Log.Info("Template created", zap.String("templateID", tpl.ID), zap.Uint("userID", caller.UserID))
	return tpl, nil
}

func (s *TemplateService) Update(caller Caller, id string, input TemplateInput) (*model.PageTemplate, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, util.NewValidationError("name", "must not be empty")
	}

	tpl, err := s.editable(caller, id)
	if err != nil {
		return nil, err
	}

	applyTemplateInput(tpl, input)
	if err := s.Store.Update(tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// Delete 删除模板；仍被测验引用时返回 ConflictError，模板保持不变
func (s *TemplateService) Delete(caller Caller, id string) error {
	if _, err := s.editable(caller, id); err != nil {
		return err
	}
	if err := s.Store.DeleteUnreferenced(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTemplateNotFound
		}
		return err
	}
	logger.Log.Info("Template deleted", zap.String("templateID", id), zap.Uint("userID", caller.UserID))
	return nil
}

// UploadPreviewImage 上传模板预览图并更新 previewImageUrl
func (s *TemplateService) UploadPreviewImage(ctx context.Context, caller Caller, id, filename string, reader io.Reader, size int64, contentType string) (*model.PageTemplate, error) {
	if !util.HasAllowedExtension(filename, util.AllowedImageExtensions) {
		return nil, util.NewValidationError("file", "unsupported image extension")
	}
	if !util.IsImage(contentType) {
		return nil, util.NewValidationError("file", "must be an image")
	}

	tpl, err := s.editable(caller, id)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("templates/%s/%d%s", tpl.ID, time.Now().UnixNano(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Storage.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return nil, err
	}

	tpl.PreviewImageURL = url
	if err := s.Store.Update(tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// editable 加载模板并确认调用者是创建者或管理员
func (s *TemplateService) editable(caller Caller, id string) (*model.PageTemplate, error) {
	tpl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if tpl.CreatorID != caller.UserID && !caller.IsAdmin() {
		return nil, util.ErrPermissionDenied
	}
	return tpl, nil
}

func applyTemplateInput(tpl *model.PageTemplate, input TemplateInput) {
	if input.Name != nil {
		tpl.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		tpl.Description = *input.Description
	}
	if input.HTMLContent != nil {
		tpl.HTMLContent = *input.HTMLContent
	}
	if input.CSSContent != nil {
		tpl.CSSContent = *input.CSSContent
	}
	if input.Tags != nil {
		tpl.Tags = model.JoinTags(input.Tags)
	}
	if input.AIHint != nil {
		tpl.AIHint = *input.AIHint
	}
}
