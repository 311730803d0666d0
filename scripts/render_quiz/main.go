// 离线渲染测验页面
//
// 读取测验 JSON（name / quizEndMessage / questions）和种子文件中的模板，
// 生成与播放页一致的独立 HTML，便于调试模板。
//
// 用法: go run ./scripts/render_quiz -quiz quiz.json -template "Classic Card" -out quiz.html

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"os"
	"quizsmith/internal/config"
	"quizsmith/internal/model"
	"quizsmith/internal/quizdoc"
	"quizsmith/internal/render"
	"quizsmith/pkg/database"

	"github.com/fatih/color"
	"github.com/natefinch/atomic"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	quizFile := flag.String("quiz", "", "测验 JSON 文件")
	templateName := flag.String("template", "", "种子文件中的模板名称，为空时输出诊断页")
	out := flag.String("out", "quiz.html", "输出文件")
	flag.Parse()

	if *quizFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	data, err := os.ReadFile(*quizFile)
	if err != nil {
		log.Fatalf("读取测验失败: %v", err)
	}
	var doc render.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Fatalf("解析测验失败: %v", err)
	}
	for field, msg := range quizdoc.Validate(doc.Questions) {
		log.Println(color.YellowString("warning: %s %s", field, msg))
	}

	var tpl *model.PageTemplate
	if *templateName != "" {
		templates, err := database.LoadSeedTemplates(cfg.Seed.TemplatesFile)
		if err != nil {
			log.Fatalf("解析种子文件失败: %v", err)
		}
		for i := range templates {
			if templates[i].Name == *templateName {
				tpl = &templates[i]
				break
			}
		}
		if tpl == nil {
			log.Fatal(color.RedString("模板 %q 不存在于 %s", *templateName, cfg.Seed.TemplatesFile))
		}
	}

	renderer := render.NewRenderer(render.Options{
		FrameworkURL:  cfg.Renderer.FrameworkURL,
		FrameworkKind: cfg.Renderer.FrameworkKind,
		Theme:         render.Theme(cfg.Renderer.Theme),
	})
	page, err := renderer.Render(tpl, doc, nil)
	if err != nil {
		log.Fatal(color.RedString("渲染失败: %v", err))
	}

	if err := atomic.WriteFile(*out, bytes.NewReader([]byte(page))); err != nil {
		log.Fatalf("写入失败: %v", err)
	}
	log.Println(color.GreenString("已生成 %s（%d 道题）", *out, len(doc.Questions)))
}
