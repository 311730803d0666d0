package service

import (
	"errors"
	"fmt"
	"strings"

	"quizsmith/internal/model"
	"quizsmith/internal/quizdoc"
	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestInput 创建或修改测验的字段；修改时 nil 字段保持不变，templateId 传空字符串表示解除模板
type TestInput struct {
	Name           *string           `json:"name" binding:"omitempty,max=255"`
	Questions      *[]model.Question `json:"questions"`
	TemplateID     *string           `json:"templateId"`
	QuizEndMessage *string           `json:"quizEndMessage"`
}

// MutationResult 批量修改后的测验以及新建元素的 ID（与修改一一对应，非新增操作为空字符串）
type MutationResult struct {
	Test       *model.Test `json:"test"`
	CreatedIDs []string    `json:"createdIds"`
}

type TestService struct {
	Store     TestStore
	Templates *TemplateService
}

func NewTestService(store TestStore, templates *TemplateService) *TestService {
	return &TestService{Store: store, Templates: templates}
}

func (s *TestService) Create(caller Caller, input TestInput) (*model.Test, error) {
	verr := &util.ValidationError{}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		verr.Add("name", "is required")
	}
	if err := s.validateInput(input, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	test := &model.Test{UserID: caller.UserID, Questions: datatypes.JSONSlice[model.Question]{}}
	applyTestInput(test, input)

	if err := s.Store.Create(test); err != nil {
		return nil, templateRefError(err)
	}
	logger.Log.Info("Test created", zap.String("testID", test.ID), zap.Uint("userID", caller.UserID))
	return test, nil
}

// Get 读取测验：不存在返回 NotFound，属于其他用户返回 PermissionDenied
func (s *TestService) Get(caller Caller, id string) (*model.Test, error) {
	test, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !test.OwnedBy(caller.UserID) {
		return nil, util.ErrPermissionDenied
	}
	return test, nil
}

// GetPublic 播放页使用，不做所有权校验
func (s *TestService) GetPublic(id string) (*model.Test, error) {
	return s.find(id)
}

func (s *TestService) List(caller Caller, page, limit int) ([]model.Test, int64, error) {
	return s.Store.ListByUser(caller.UserID, page, limit)
}

func (s *TestService) Update(caller Caller, id string, input TestInput) (*model.Test, error) {
	verr := &util.ValidationError{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		verr.Add("name", "must not be empty")
	}
	if err := s.validateInput(input, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	test, err := s.Get(caller, id)
	if err != nil {
		return nil, err
	}

	applyTestInput(test, input)
	if err := s.Store.Update(test); err != nil {
		return nil, templateRefError(err)
	}
	return test, nil
}

func (s *TestService) Delete(caller Caller, id string) error {
	if _, err := s.Get(caller, id); err != nil {
		return err
	}
	if err := s.Store.Delete(id); err != nil {
		return err
	}
	logger.Log.Info("Test deleted", zap.String("testID", id), zap.Uint("userID", caller.UserID))
	return nil
}

// ApplyMutations 依次执行编辑器提交的修改并保存；任一修改非法时整批放弃
func (s *TestService) ApplyMutations(caller Caller, id string, mutations []quizdoc.Mutation) (*MutationResult, error) {
	test, err := s.Get(caller, id)
	if err != nil {
		return nil, err
	}

	questions := test.QuestionList()
	created := make([]string, len(mutations))
	for i, m := range mutations {
		next, newID, err := quizdoc.Apply(questions, m)
		if err != nil {
			if errors.Is(err, quizdoc.ErrUnknownOp) || errors.Is(err, quizdoc.ErrBadValue) {
				return nil, util.NewValidationError(fmt.Sprintf("mutations[%d]", i), err.Error())
			}
			return nil, err
		}
		questions = next
		created[i] = newID
	}

	if problems := quizdoc.Validate(questions); len(problems) > 0 {
		return nil, &util.ValidationError{Fields: problems}
	}

	test.Questions = questions
	if err := s.Store.Update(test); err != nil {
		return nil, err
	}
	return &MutationResult{Test: test, CreatedIDs: created}, nil
}

func (s *TestService) find(id string) (*model.Test, error) {
	test, err := s.Store.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

// validateInput 校验题目结构与模板引用，字段问题写入 verr，其余错误直接返回
func (s *TestService) validateInput(input TestInput, verr *util.ValidationError) error {
	if input.Questions != nil {
		for field, msg := range quizdoc.Validate(*input.Questions) {
			verr.Add(field, msg)
		}
	}
	if input.TemplateID != nil && *input.TemplateID != "" {
		if _, err := s.Templates.Get(*input.TemplateID); err != nil {
			if errors.Is(err, util.ErrNotFound) {
				verr.Add("templateId", "unknown template")
				return nil
			}
			return err
		}
	}
	return nil
}

// templateRefError 模板在校验之后被删除时，外键拒绝写入
func templateRefError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return util.NewValidationError("templateId", "unknown template")
	}
	return err
}

func applyTestInput(test *model.Test, input TestInput) {
	if input.Name != nil {
		test.Name = strings.TrimSpace(*input.Name)
	}
	if input.Questions != nil {
		test.Questions = quizdoc.Clone(*input.Questions)
	}
	if input.TemplateID != nil {
		if *input.TemplateID == "" {
			test.TemplateID = nil
		} else {
			id := *input.TemplateID
			test.TemplateID = &id
		}
	}
	if input.QuizEndMessage != nil {
		test.QuizEndMessage = *input.QuizEndMessage
	}
}
