package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/util"
	"quizsmith/pkg/monitoring"
	"quizsmith/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// 渲染用途，用作监控标签
const (
	PurposePreview = "preview"
	PurposePopout  = "popout"
	PurposeLive    = "live"
	PurposePlayer  = "player"
	PurposeExport  = "export"
)

const popoutKeyPrefix = "quizsmith:popout:"

// PreviewRequest 编辑器当前的未保存内容
type PreviewRequest struct {
	TemplateID     string           `json:"templateId"`
	Name           string           `json:"name"`
	QuizEndMessage string           `json:"quizEndMessage"`
	Questions      []model.Question `json:"questions"`
	Theme          render.Theme     `json:"theme"`
}

// Popout 全屏预览的一次性链接
type Popout struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PreviewService struct {
	Renderer      *render.Renderer
	Templates     *TemplateService
	Redis         redis.Cmdable
	PopoutTTL     time.Duration
	PublicBaseURL string
}

func NewPreviewService(renderer *render.Renderer, templates *TemplateService, rdb redis.Cmdable, ttl time.Duration, publicBaseURL string) *PreviewService {
	return &PreviewService{
		Renderer:      renderer,
		Templates:     templates,
		Redis:         rdb,
		PopoutTTL:     ttl,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Render 渲染编辑器内容。模板不存在时返回诊断页；模板缺少槽位时返回 ValidationError
func (s *PreviewService) Render(ctx context.Context, purpose string, req PreviewRequest) (string, error) {
	var templateID *string
	if req.TemplateID != "" {
		templateID = &req.TemplateID
	}
	doc := render.Document{Name: req.Name, EndMessage: req.QuizEndMessage, Questions: req.Questions}
	return s.render(ctx, purpose, templateID, doc, req.Theme)
}

// RenderTest 渲染已保存的测验
func (s *PreviewService) RenderTest(ctx context.Context, purpose string, test *model.Test) (string, error) {
	doc := render.Document{Name: test.Name, EndMessage: test.QuizEndMessage, Questions: test.QuestionList()}
	return s.render(ctx, purpose, test.TemplateID, doc, nil)
}

func (s *PreviewService) render(ctx context.Context, purpose string, templateID *string, doc render.Document, theme render.Theme) (string, error) {
	_, span := tracing.Tracer.Start(ctx, "render.quiz")
	defer span.End()
	span.SetAttributes(
		attribute.String("quiz.render.purpose", purpose),
		attribute.Int("quiz.questions", len(doc.Questions)),
	)

	tpl, err := s.Templates.Resolve(templateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.RenderCounter.WithLabelValues(purpose, "error").Inc()
		return "", err
	}
	if tpl == nil {
		monitoring.RenderCounter.WithLabelValues(purpose, "no_template").Inc()
	}

	html, err := s.Renderer.Render(tpl, doc, theme)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var slotErr *render.SlotError
		if errors.As(err, &slotErr) {
			monitoring.RenderCounter.WithLabelValues(purpose, "slot_error").Inc()
			return "", util.NewValidationError("templateId", slotErr.Error())
		}
		monitoring.RenderCounter.WithLabelValues(purpose, "error").Inc()
		return "", err
	}

	if tpl != nil {
		monitoring.RenderCounter.WithLabelValues(purpose, "ok").Inc()
	}
	span.SetAttributes(attribute.Int("quiz.render.bytes", len(html)))
	return html, nil
}

// CreatePopout 把渲染结果暂存到 Redis，返回只能打开一次且很快过期的链接
func (s *PreviewService) CreatePopout(ctx context.Context, html string) (*Popout, error) {
	token := strings.ReplaceAll(model.GenerateUUID(), "-", "")
	if err := s.Redis.Set(ctx, popoutKeyPrefix+token, html, s.PopoutTTL).Err(); err != nil {
		return nil, fmt.Errorf("store popout: %w", err)
	}
	return &Popout{
		Token:     token,
		URL:       s.PublicBaseURL + "/preview/" + token,
		ExpiresAt: time.Now().Add(s.PopoutTTL),
	}, nil
}

// TakePopout 取出并删除暂存的预览；已取过或已过期返回 ErrPreviewExpired
func (s *PreviewService) TakePopout(ctx context.Context, token string) (string, error) {
	html, err := s.Redis.GetDel(ctx, popoutKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", util.ErrPreviewExpired
		}
		return "", err
	}
	return html, nil
}

// EmbedSnippet 测验嵌入代码
func (s *PreviewService) EmbedSnippet(testID string) string {
	return render.EmbedSnippet(s.PublicBaseURL, testID)
}
