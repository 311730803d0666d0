package model

import "gorm.io/datatypes"

// Test 测验，归创建者所有
type Test struct {
	UUIDBase
	Name           string                        `gorm:"size:255;not null" json:"name"`
	Questions      datatypes.JSONSlice[Question] `json:"questions"`
	TemplateID     *string                       `gorm:"type:varchar(36);index" json:"templateId"`
	Template       *PageTemplate                 `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	QuizEndMessage string                        `gorm:"type:text" json:"quizEndMessage"`
	UserID         uint                          `gorm:"index;not null" json:"userId"`
}

func (Test) TableName() string {
	return "tests"
}

// QuestionList 返回题目切片
func (t *Test) QuestionList() []Question {
	return []Question(t.Questions)
}

// OwnedBy 判断测验是否属于指定用户
func (t *Test) OwnedBy(userID uint) bool {
	return t.UserID == userID
}
