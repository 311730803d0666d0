package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"quizsmith/internal/model"
	"quizsmith/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedTemplate 种子文件中的一条模板
type SeedTemplate struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	HTML            string   `yaml:"html"`
	CSS             string   `yaml:"css"`
	PreviewImageURL string   `yaml:"preview_image_url"`
	Tags            []string `yaml:"tags"`
	AIHint          string   `yaml:"ai_hint"`
}

type seedFile struct {
	Templates []SeedTemplate `yaml:"templates"`
}

// LoadSeedTemplates 读取 YAML 种子文件
func LoadSeedTemplates(path string) ([]model.PageTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	templates := make([]model.PageTemplate, 0, len(file.Templates))
	for i, st := range file.Templates {
		if strings.TrimSpace(st.Name) == "" {
			return nil, fmt.Errorf("%s: template #%d has no name", path, i+1)
		}
		templates = append(templates, model.PageTemplate{
			Name:            st.Name,
			Description:     st.Description,
			HTMLContent:     st.HTML,
			CSSContent:      st.CSS,
			PreviewImageURL: st.PreviewImageURL,
			Tags:            model.JoinTags(st.Tags),
			AIHint:          st.AIHint,
		})
	}
	return templates, nil
}

// SeedTemplates 插入名称尚不存在的模板，返回新插入的数量
func SeedTemplates(db *gorm.DB, templates []model.PageTemplate) (int, error) {
	repo := repository.NewPageTemplateRepository(db)
	inserted := 0
	for i := range templates {
		_, err := repo.FindByName(templates[i].Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, err
		}
		if err := repo.Create(&templates[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
