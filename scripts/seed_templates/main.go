// 手动导入内置页面模板
//
// 主程序在模板表为空时会自动导入，此脚本用于向已有数据的库补充新模板。
// 已存在同名模板时跳过。
//
// 用法: go run ./scripts/seed_templates -file configs/seed_templates.yaml

package main

import (
	"flag"
	"log"
	"quizsmith/internal/config"
	"quizsmith/pkg/database"

	"github.com/fatih/color"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	file := flag.String("file", "", "种子文件路径，默认读取配置中的 seed.templates_file")
	dryRun := flag.Bool("dry-run", false, "只解析种子文件，不写入数据库")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	path := *file
	if path == "" {
		path = cfg.Seed.TemplatesFile
	}

	templates, err := database.LoadSeedTemplates(path)
	if err != nil {
		log.Fatalf("解析种子文件失败: %v", err)
	}
	for _, t := range templates {
		log.Printf("%s %s", color.CyanString("template"), t.Name)
	}

	if *dryRun {
		log.Println(color.YellowString("dry-run: 共 %d 个模板，未写入数据库", len(templates)))
		return
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	inserted, err := database.SeedTemplates(db, templates)
	if err != nil {
		log.Fatal(color.RedString("导入失败（已导入 %d 个）: %v", inserted, err))
	}
	log.Println(color.GreenString("完成！新增 %d 个模板，跳过 %d 个", inserted, len(templates)-inserted))
}
