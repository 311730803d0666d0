package quizdoc

import (
	"quizsmith/internal/model"
)

// pairsOf 取出匹配题或连线题的左右文本对
func pairsOf(body model.QuestionBody) ([]model.Pair, bool) {
	switch b := body.(type) {
	case model.Matching:
		return b.Pairs, true
	case model.ConnectPoints:
		return b.Pairs, true
	}
	return nil, false
}

func withPairs(body model.QuestionBody, pairs []model.Pair) model.QuestionBody {
	switch body.(type) {
	case model.Matching:
		return model.Matching{Pairs: pairs}
	case model.ConnectPoints:
		return model.ConnectPoints{Pairs: pairs}
	}
	return body
}

func updatePairs(questions []model.Question, questionID string, fn func(pairs []model.Pair) []model.Pair) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		pairs, ok := pairsOf(q.Body)
		if !ok {
			return
		}
		q.Body = withPairs(q.Body, fn(pairs))
	})
}

// AddPair 为匹配题或连线题追加空的左右对
func AddPair(questions []model.Question, questionID string) ([]model.Question, string) {
	var newID string
	out := updatePairs(questions, questionID, func(pairs []model.Pair) []model.Pair {
		newID = model.GenerateUUID()
		return append(pairs, model.Pair{ID: newID})
	})
	return out, newID
}

func RemovePair(questions []model.Question, questionID, pairID string) []model.Question {
	return updatePairs(questions, questionID, func(pairs []model.Pair) []model.Pair {
		kept := pairs[:0]
		for _, p := range pairs {
			if p.ID != pairID {
				kept = append(kept, p)
			}
		}
		return kept
	})
}

func UpdatePair(questions []model.Question, questionID, pairID string, field Field, value string) []model.Question {
	return updatePairs(questions, questionID, func(pairs []model.Pair) []model.Pair {
		for i := range pairs {
			if pairs[i].ID != pairID {
				continue
			}
			switch field {
			case FieldLeft:
				pairs[i].Left = value
			case FieldRight:
				pairs[i].Right = value
			}
		}
		return pairs
	})
}

// AddDragItem 为拖放题或分类题追加拖拽项
func AddDragItem(questions []model.Question, questionID string) ([]model.Question, string) {
	var newID string
	out := update(questions, questionID, func(q *model.Question) {
		item := model.DragItem{ID: model.GenerateUUID()}
		switch b := q.Body.(type) {
		case model.DragAndDrop:
			b.Items = append(b.Items, item)
			q.Body = b
		case model.Categorization:
			b.Items = append(b.Items, item)
			q.Body = b
		default:
			return
		}
		newID = item.ID
	})
	return out, newID
}

// RemoveDragItem 删除拖拽项，并清除所有指向它的放置区引用
func RemoveDragItem(questions []model.Question, questionID, itemID string) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		switch b := q.Body.(type) {
		case model.DragAndDrop:
			b.Items = removeDragItem(b.Items, itemID)
			for i := range b.Targets {
				if b.Targets[i].ExpectedDragItemID == itemID {
					b.Targets[i].ExpectedDragItemID = ""
				}
			}
			q.Body = b
		case model.Categorization:
			b.Items = removeDragItem(b.Items, itemID)
			q.Body = b
		}
	})
}

func removeDragItem(items []model.DragItem, itemID string) []model.DragItem {
	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	return kept
}

// UpdateDragItem 修改拖拽项文本或所属分类；分类必须存在（空字符串表示不归类）
func UpdateDragItem(questions []model.Question, questionID, itemID string, field Field, value string) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		switch b := q.Body.(type) {
		case model.DragAndDrop:
			if field == FieldText {
				setDragItemText(b.Items, itemID, value)
			}
			q.Body = b
		case model.Categorization:
			switch field {
			case FieldText:
				setDragItemText(b.Items, itemID, value)
			case FieldCorrectCategoryID:
				if value != "" && !hasCategory(b.Categories, value) {
					return
				}
				for i := range b.Items {
					if b.Items[i].ID == itemID {
						b.Items[i].CorrectCategoryID = value
					}
				}
			}
			q.Body = b
		}
	})
}

func setDragItemText(items []model.DragItem, itemID, text string) {
	for i := range items {
		if items[i].ID == itemID {
			items[i].Text = text
		}
	}
}

func hasCategory(categories []model.Category, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func hasDragItem(items []model.DragItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func updateDragAndDrop(questions []model.Question, questionID string, fn func(b *model.DragAndDrop)) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		b, ok := q.Body.(model.DragAndDrop)
		if !ok {
			return
		}
		fn(&b)
		q.Body = b
	})
}

func AddDropTarget(questions []model.Question, questionID string) ([]model.Question, string) {
	var newID string
	out := updateDragAndDrop(questions, questionID, func(b *model.DragAndDrop) {
		newID = model.GenerateUUID()
		b.Targets = append(b.Targets, model.DropTarget{ID: newID})
	})
	return out, newID
}

func RemoveDropTarget(questions []model.Question, questionID, targetID string) []model.Question {
	return updateDragAndDrop(questions, questionID, func(b *model.DragAndDrop) {
		kept := b.Targets[:0]
		for _, t := range b.Targets {
			if t.ID != targetID {
				kept = append(kept, t)
			}
		}
		b.Targets = kept
	})
}

// UpdateDropTarget 修改放置区文本或期望的拖拽项；拖拽项必须存在（空字符串表示清除）
func UpdateDropTarget(questions []model.Question, questionID, targetID string, field Field, value string) []model.Question {
	return updateDragAndDrop(questions, questionID, func(b *model.DragAndDrop) {
		if field == FieldExpectedDragItem && value != "" && !hasDragItem(b.Items, value) {
			return
		}
		for i := range b.Targets {
			if b.Targets[i].ID != targetID {
				continue
			}
			switch field {
			case FieldText:
				b.Targets[i].Text = value
			case FieldExpectedDragItem:
				b.Targets[i].ExpectedDragItemID = value
			}
		}
	})
}

func updateCategorization(questions []model.Question, questionID string, fn func(b *model.Categorization)) []model.Question {
	return update(questions, questionID, func(q *model.Question) {
		b, ok := q.Body.(model.Categorization)
		if !ok {
			return
		}
		fn(&b)
		q.Body = b
	})
}

func AddCategory(questions []model.Question, questionID string) ([]model.Question, string) {
	var newID string
	out := updateCategorization(questions, questionID, func(b *model.Categorization) {
		newID = model.GenerateUUID()
		b.Categories = append(b.Categories, model.Category{ID: newID})
	})
	return out, newID
}

// RemoveCategory 删除分类，并清除恰好指向该分类的拖拽项上的引用
func RemoveCategory(questions []model.Question, questionID, categoryID string) []model.Question {
	return updateCategorization(questions, questionID, func(b *model.Categorization) {
		kept := b.Categories[:0]
		for _, c := range b.Categories {
			if c.ID != categoryID {
				kept = append(kept, c)
			}
		}
		b.Categories = kept
		for i := range b.Items {
			if b.Items[i].CorrectCategoryID == categoryID {
				b.Items[i].CorrectCategoryID = ""
			}
		}
	})
}

func UpdateCategory(questions []model.Question, questionID, categoryID string, field Field, value string) []model.Question {
	return updateCategorization(questions, questionID, func(b *model.Categorization) {
		if field != FieldName {
			return
		}
		for i := range b.Categories {
			if b.Categories[i].ID == categoryID {
				b.Categories[i].Name = value
			}
		}
	})
}
