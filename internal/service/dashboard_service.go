package service

import (
	"quizsmith/internal/repository"
	"quizsmith/internal/util"
)

const recentTestsLimit = 5

type DashboardService struct {
	Repo      *repository.DashboardRepository
	TestRepo  *repository.TestRepository
	Templates *repository.PageTemplateRepository
}

func NewDashboardService(repo *repository.DashboardRepository, testRepo *repository.TestRepository, templates *repository.PageTemplateRepository) *DashboardService {
	return &DashboardService{Repo: repo, TestRepo: testRepo, Templates: templates}
}

type RecentTest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	QuestionCount int     `json:"questionCount"`
	TemplateID    *string `json:"templateId"`
	UpdatedAt     string  `json:"updatedAt"`
}

type Dashboard struct {
	TestCount           int64            `json:"testCount"`
	TemplateCount       int64            `json:"templateCount"`
	MyTemplateCount     int64            `json:"myTemplateCount"`
	RecentQuestionTypes map[string]int   `json:"recentQuestionTypes"` // 最近测验中各题型数量
	TemplateUsage       map[string]int64 `json:"templateUsage"`
	RecentTests         []RecentTest     `json:"recentTests"`
}

func (s *DashboardService) Get(caller Caller) (*Dashboard, error) {
	testCount, err := s.TestRepo.CountByUser(caller.UserID)
	if err != nil {
		return nil, err
	}
	templateCount, err := s.Templates.Count()
	if err != nil {
		return nil, err
	}
	mine, err := s.Repo.TemplatesByCreator(caller.UserID)
	if err != nil {
		return nil, err
	}
	usage, err := s.Repo.TemplateUsage(caller.UserID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Repo.RecentTests(caller.UserID, recentTestsLimit)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		TestCount:           testCount,
		TemplateCount:       templateCount,
		MyTemplateCount:     mine,
		RecentQuestionTypes: make(map[string]int),
		TemplateUsage:       usage,
		RecentTests:         make([]RecentTest, 0, len(recent)),
	}
	for _, test := range recent {
		questions := test.QuestionList()
		for _, q := range questions {
			dash.RecentQuestionTypes[string(q.Type)]++
		}
		dash.RecentTests = append(dash.RecentTests, RecentTest{
			ID:            test.ID,
			Name:          test.Name,
			QuestionCount: len(questions),
			TemplateID:    test.TemplateID,
			UpdatedAt:     test.UpdatedAt.Format(util.TimeFormat),
		})
	}
	return dash, nil
}
