package model

import "strings"

// PageTemplate 测验页面模板（HTML + CSS），测验通过 TemplateID 引用，不持有模板
type PageTemplate struct {
	UUIDBase
	Name            string `gorm:"size:255;not null" json:"name"`
	Description     string `gorm:"type:text" json:"description"`
	HTMLContent     string `gorm:"type:text" json:"htmlContent"`
	CSSContent      string `gorm:"type:text" json:"cssContent"`
	PreviewImageURL string `gorm:"size:500" json:"previewImageUrl"`
	Tags            string `gorm:"size:500" json:"tags"` // 逗号分隔
	AIHint          string `gorm:"type:text" json:"aiHint"`
	CreatorID       uint   `gorm:"index" json:"creatorId"`
}

func (PageTemplate) TableName() string {
	return "page_templates"
}

// TagList 拆分逗号分隔的标签
func (t *PageTemplate) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags 规范化标签列表为逗号分隔字符串
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	return strings.Join(cleaned, ",")
}
