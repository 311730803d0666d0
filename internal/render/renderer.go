// Package render 把页面模板和测验数据组合成完整、自包含的 HTML 文档。
package render

import (
	"bytes"
	"encoding/json"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"sync"

	"quizsmith/internal/model"
)

const (
	FrameworkScript     = "script"
	FrameworkStylesheet = "stylesheet"
)

// Options 渲染器配置，可在运行时替换
type Options struct {
	FrameworkURL  string
	FrameworkKind string
	Theme         Theme
}

// Document 参与渲染的测验内容
type Document struct {
	Name       string           `json:"name"`
	EndMessage string           `json:"quizEndMessage"`
	Questions  []model.Question `json:"questions"`
}

// Theme CSS 自定义属性名 -> 值
type Theme map[string]string

var (
	themeNamePattern = regexp.MustCompile(`^--[A-Za-z0-9_-]+$`)
	styleCloser      = regexp.MustCompile(`(?i)</style`)
)

// Merge 以 override 覆盖 t，返回新的主题
func (t Theme) Merge(override Theme) Theme {
	out := make(Theme, len(t)+len(override))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// CSS 生成 :root 变量块；非法属性名和包含 ;{}<> 的值会被丢弃
func (t Theme) CSS() string {
	names := make([]string, 0, len(t))
	for name, value := range t {
		if !themeNamePattern.MatchString(name) || strings.ContainsAny(value, ";{}<>") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root{")
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(strings.TrimSpace(t[name]))
		b.WriteString(";")
	}
	b.WriteString("}")
	return b.String()
}

// EncodeQuestions 序列化题目，并转义 </ 与 <!-- 以免提前结束 script 元素
func EncodeQuestions(questions []model.Question) (string, error) {
	if questions == nil {
		questions = []model.Question{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(questions); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	out = strings.ReplaceAll(out, "</", `<\/`)
	out = strings.ReplaceAll(out, "<!--", `\u003c!--`)
	return out, nil
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .Stylesheet}}<link rel="stylesheet" href="{{.FrameworkURL}}">{{else if .FrameworkURL}}<script src="{{.FrameworkURL}}"></script>{{end}}
{{if .ThemeCSS}}<style>{{.ThemeCSS}}</style>
{{end}}<style>{{.TemplateCSS}}</style>
</head>
<body>
{{.Body}}
<script type="application/json" id="quiz-data">{{.QuizData}}</script>
<template id="quiz-name">{{.QuizName}}</template>
<template id="quiz-end-message">{{.EndMessage}}</template>
</body>
</html>
`))

var diagnostic = template.Must(template.New("diagnostic").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.}}</title>
<style>body{font-family:system-ui,sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0;color:#555}</style>
</head>
<body>
<p>{{.}}</p>
</body>
</html>
`))

type pageData struct {
	Title        string
	FrameworkURL string
	Stylesheet   bool
	ThemeCSS     template.CSS
	TemplateCSS  template.CSS
	Body         template.HTML
	QuizData     template.JS
	QuizName     string
	EndMessage   string
}

// NoTemplateMessage 未选择模板时诊断页显示的文本
const NoTemplateMessage = "No template selected"

type Renderer struct {
	mu   sync.RWMutex
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// SetOptions 替换渲染配置，配置热加载时调用
func (r *Renderer) SetOptions(opts Options) {
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
}

// Render 生成完整 HTML 文档。tpl 为 nil 时返回诊断页而不是错误；
// 模板没有引用必需槽位时返回 *SlotError。theme 覆盖配置中的默认主题。
func (r *Renderer) Render(tpl *model.PageTemplate, doc Document, theme Theme) (string, error) {
	if tpl == nil {
		return Diagnostic(NoTemplateMessage), nil
	}
	if err := CheckSlots(tpl.HTMLContent); err != nil {
		return "", err
	}

	data, err := EncodeQuestions(doc.Questions)
	if err != nil {
		return "", err
	}

	opts := r.Options()
	title := doc.Name
	if title == "" {
		title = tpl.Name
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Title:        title,
		FrameworkURL: opts.FrameworkURL,
		Stylesheet:   opts.FrameworkKind == FrameworkStylesheet && opts.FrameworkURL != "",
		ThemeCSS:     template.CSS(opts.Theme.Merge(theme).CSS()),
		TemplateCSS:  template.CSS(styleCloser.ReplaceAllString(tpl.CSSContent, `<\/style`)),
		Body:         template.HTML(tpl.HTMLContent),
		QuizData:     template.JS(data),
		QuizName:     doc.Name,
		EndMessage:   doc.EndMessage,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Diagnostic 生成只包含一条提示的最小页面
func Diagnostic(message string) string {
	var buf bytes.Buffer
	if err := diagnostic.Execute(&buf, message); err != nil {
		return "<!DOCTYPE html><html><body></body></html>"
	}
	return buf.String()
}
