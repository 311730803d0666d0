package quizdoc

import (
	"fmt"

	"quizsmith/internal/model"
)

// Validate 检查题目列表的结构问题，返回 字段路径 -> 错误信息；没有问题时返回空 map。
// 题目 ID 在整个文档内唯一；选项、配对、拖拽项、目标、分类的 ID 只需在所属题目的同一集合内唯一。
func Validate(questions []model.Question) map[string]string {
	problems := make(map[string]string)

	// idChecker 返回一个只在自身范围内查重的检查函数
	idChecker := func() func(path, id string) {
		seen := make(map[string]string)
		return func(path, id string) {
			if id == "" {
				problems[path+".id"] = "id is required"
				return
			}
			if prev, ok := seen[id]; ok {
				problems[path+".id"] = fmt.Sprintf("duplicate id %q (also used by %s)", id, prev)
				return
			}
			seen[id] = path
		}
	}
	checkQuestionID := idChecker()

	for i, q := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		checkQuestionID(path, q.ID)
		if !q.Type.Valid() || q.Body == nil {
			problems[path+".type"] = fmt.Sprintf("unknown question type %q", q.Type)
			continue
		}

		switch b := q.Body.(type) {
		case model.MultipleChoice:
			if len(b.Options) == 0 {
				problems[path+".options"] = "at least one option is required"
			}
			correct := 0
			checkID := idChecker()
			for j, o := range b.Options {
				checkID(fmt.Sprintf("%s.options[%d]", path, j), o.ID)
				if o.IsCorrect {
					correct++
				}
			}
			if !b.AllowMultipleAnswers && correct > 1 {
				problems[path+".options"] = "single-answer question has more than one correct option"
			}
		case model.Matching:
			checkID := idChecker()
			for j, p := range b.Pairs {
				checkID(fmt.Sprintf("%s.matchPairs[%d]", path, j), p.ID)
			}
		case model.ConnectPoints:
			checkID := idChecker()
			for j, p := range b.Pairs {
				checkID(fmt.Sprintf("%s.connectPairs[%d]", path, j), p.ID)
			}
		case model.DragAndDrop:
			checkItem, checkTarget := idChecker(), idChecker()
			for j, it := range b.Items {
				checkItem(fmt.Sprintf("%s.dragItems[%d]", path, j), it.ID)
			}
			for j, t := range b.Targets {
				tp := fmt.Sprintf("%s.dropTargets[%d]", path, j)
				checkTarget(tp, t.ID)
				if t.ExpectedDragItemID != "" && !hasDragItem(b.Items, t.ExpectedDragItemID) {
					problems[tp+".expectedDragItemId"] = fmt.Sprintf("unknown drag item %q", t.ExpectedDragItemID)
				}
			}
		case model.Categorization:
			checkCategory, checkItem := idChecker(), idChecker()
			for j, c := range b.Categories {
				checkCategory(fmt.Sprintf("%s.categories[%d]", path, j), c.ID)
			}
			for j, it := range b.Items {
				ip := fmt.Sprintf("%s.dragItems[%d]", path, j)
				checkItem(ip, it.ID)
				if it.CorrectCategoryID != "" && !hasCategory(b.Categories, it.CorrectCategoryID) {
					problems[ip+".correctCategoryId"] = fmt.Sprintf("unknown category %q", it.CorrectCategoryID)
				}
			}
		}
	}
	return problems
}
