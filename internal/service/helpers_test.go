package service

import (
	"fmt"
	"testing"

	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/repository"
	"quizsmith/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 同时含有 quiz-data 引用的可用模板
const slotHTML = `<main id="app"></main><script>JSON.parse(document.getElementById("quiz-data").textContent)</script>`

var (
	alice = Caller{UserID: 1, Role: model.Author}
	bob   = Caller{UserID: 2, Role: model.Author}
	root  = Caller{UserID: 9, Role: model.Admin}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

type fixture struct {
	db        *gorm.DB
	templates *TemplateService
	tests     *TestService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	storage := &StorageService{Provider: &LocalStorageProvider{Root: t.TempDir()}}
	templates := NewTemplateService(repository.NewPageTemplateRepository(db), storage)
	return &fixture{
		db:        db,
		templates: templates,
		tests:     NewTestService(repository.NewTestRepository(db), templates),
	}
}

func (f *fixture) template(t *testing.T, caller Caller, name string) *model.PageTemplate {
	t.Helper()
	html := slotHTML
	tpl, err := f.templates.Create(caller, TemplateInput{Name: &name, HTMLContent: &html})
	require.NoError(t, err)
	return tpl
}

func (f *fixture) test(t *testing.T, caller Caller, name string, templateID *string) *model.Test {
	t.Helper()
	test, err := f.tests.Create(caller, TestInput{Name: &name, TemplateID: templateID})
	require.NoError(t, err)
	return test
}

func newRenderer() *render.Renderer {
	return render.NewRenderer(render.Options{
		FrameworkURL:  "https://cdn.example.com/fw.js",
		FrameworkKind: render.FrameworkScript,
		Theme:         render.Theme{"--primary": "220 80% 50%"},
	})
}

func ptr[T any](v T) *T {
	return &v
}
