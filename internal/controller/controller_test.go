package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizsmith/internal/config"
	"quizsmith/internal/middleware"
	"quizsmith/internal/model"
	"quizsmith/internal/render"
	"quizsmith/internal/repository"
	"quizsmith/internal/service"
	"quizsmith/internal/util"
	"quizsmith/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	slotHTML   = `<div id="app"></div><script>document.getElementById("quiz-data")</script>`
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	util.RegisterJSONTagNames()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
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

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour}}

	renderer := render.NewRenderer(render.Options{FrameworkURL: "https://cdn.example.com/fw.js", FrameworkKind: render.FrameworkScript})
	storage := &service.StorageService{Provider: &service.LocalStorageProvider{Root: t.TempDir()}}
	templateService := service.NewTemplateService(repository.NewPageTemplateRepository(db), storage)
	testService := service.NewTestService(repository.NewTestRepository(db), templateService)
	previewService := service.NewPreviewService(renderer, templateService, rdb, time.Minute, "http://quiz.test")
	draftService := service.NewDraftService(service.NewRedisDraftStore(rdb, time.Hour), time.Hour)
	settingService := service.NewSettingService(repository.NewAdminSettingRepository(db), map[string]string{
		model.SettingStorageBackend: "sqlite",
		model.SettingAssetStorage:   "local",
	})

	templates := NewTemplateController(templateService)
	tests := NewTestController(testService, previewService, draftService)
	drafts := NewDraftController(draftService)
	preview := NewPreviewController(previewService)
	player := NewPlayerController(testService, previewService)
	settings := NewSettingController(settingService)

	router := gin.New()
	router.GET("/play/:id", player.Play)
	router.GET("/preview/:token", preview.ServePopout)

	api := router.Group("/api", middleware.AuthMiddleware(cfg))
	api.GET("/templates", templates.ListTemplates)
	api.POST("/templates", templates.CreateTemplate)
	api.GET("/templates/:id", templates.GetTemplate)
	api.PUT("/templates/:id", templates.UpdateTemplate)
	api.DELETE("/templates/:id", templates.DeleteTemplate)
	api.GET("/tests", tests.ListTests)
	api.POST("/tests", tests.CreateTest)
	api.GET("/tests/:id", tests.GetTest)
	api.PUT("/tests/:id", tests.UpdateTest)
	api.DELETE("/tests/:id", tests.DeleteTest)
	api.POST("/tests/:id/mutations", tests.ApplyMutations)
	api.GET("/tests/:id/embed", tests.EmbedSnippet)
	api.GET("/tests/:id/export", tests.ExportTest)
	api.GET("/drafts/:key", drafts.GetDraft)
	api.PUT("/drafts/:key", drafts.SaveDraft)
	api.DELETE("/drafts/:key", drafts.DeleteDraft)
	api.POST("/preview", preview.Preview)
	api.POST("/preview/popout", preview.CreatePopout)

	admin := router.Group("/api/admin", middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	admin.GET("/settings", settings.GetSettings)
	admin.POST("/settings", settings.UpdateSettings)

	return &testServer{router: router, cfg: cfg}
}

func (s *testServer) token(t *testing.T, id uint, role model.UserRole) string {
	t.Helper()
	user := &model.User{BaseModel: model.BaseModel{ID: id}, Role: role, Email: fmt.Sprintf("u%d@example.com", id)}
	token, err := util.GenerateJWT(user, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func fieldsOf(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var data struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &data)
	return data.Fields
}

func (s *testServer) createTemplate(t *testing.T, token, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/templates", token, gin.H{"name": name, "htmlContent": slotHTML})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tpl struct {
		ID string `json:"id"`
	}
	decode(t, w, &tpl)
	return tpl.ID
}

func (s *testServer) createTest(t *testing.T, token string, body gin.H) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/tests", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var test struct {
		ID string `json:"id"`
	}
	decode(t, w, &test)
	return test.ID
}

func TestRequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/tests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTest_FieldErrors(t *testing.T) {
	s := newTestServer(t)
	author := s.token(t, 1, model.Author)

	w := s.do(t, http.MethodPost, "/api/tests", author, gin.H{"templateId": "ghost"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := fieldsOf(t, w)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "templateId")

	w = s.do(t, http.MethodPost, "/api/tests", author, gin.H{"name": 42})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldsOf(t, w), "name")
}

func TestTestOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	bob := s.token(t, 2, model.Author)
	id := s.createTest(t, alice, gin.H{"name": "Mine"})

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/tests/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/tests/"+id, bob, gin.H{"name": "Theirs"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, "/api/tests/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/tests/missing", alice, nil).Code)

	w := s.do(t, http.MethodGet, "/api/tests/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Name       string `json:"name"`
		DraftNewer bool   `json:"draftNewer"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "Mine", detail.Name)
	assert.False(t, detail.DraftNewer)
}

func TestGetTest_AttachesNewerDraft(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	id := s.createTest(t, alice, gin.H{"name": "Saved"})

	w := s.do(t, http.MethodPut, "/api/drafts/test:"+id, alice, gin.H{"data": gin.H{"name": "Unsaved"}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/tests/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Name  string `json:"name"`
		Draft *struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		} `json:"draft"`
		DraftNewer bool `json:"draftNewer"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "Saved", detail.Name)
	require.NotNil(t, detail.Draft)
	assert.Equal(t, "Unsaved", detail.Draft.Data.Name)
	assert.True(t, detail.DraftNewer)

	// 保存后草稿被清除
	w = s.do(t, http.MethodPut, "/api/tests/"+id, alice, gin.H{"name": "Saved again"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/drafts/test:"+id, alice, nil).Code)
}

func TestApplyMutations_Validation(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	id := s.createTest(t, alice, gin.H{"name": "Quiz"})

	w := s.do(t, http.MethodPost, "/api/tests/"+id+"/mutations", alice, gin.H{"mutations": []gin.H{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldsOf(t, w), "mutations")

	w = s.do(t, http.MethodPost, "/api/tests/"+id+"/mutations", alice, gin.H{"mutations": []gin.H{
		{"op": "explode"},
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldsOf(t, w), "mutations[0]")

	w = s.do(t, http.MethodPost, "/api/tests/"+id+"/mutations", alice, gin.H{"mutations": []gin.H{
		{"op": "addQuestion", "value": "connect-points"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		CreatedIDs []string `json:"createdIds"`
	}
	decode(t, w, &result)
	require.Len(t, result.CreatedIDs, 1)
	assert.NotEmpty(t, result.CreatedIDs[0])
}

func TestDeleteTemplate_ConflictWhileReferenced(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	tplID := s.createTemplate(t, alice, "Shared")
	testID := s.createTest(t, alice, gin.H{"name": "Quiz", "templateId": tplID})

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/api/templates/"+tplID, alice, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/templates/"+tplID, alice, nil).Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/tests/"+testID, alice, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/templates/"+tplID, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/templates/"+tplID, alice, nil).Code)
}

func TestUpdateTemplate_OtherAuthorForbidden(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	bob := s.token(t, 2, model.Author)
	admin := s.token(t, 3, model.Admin)
	tplID := s.createTemplate(t, alice, "Alice's")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/templates/"+tplID, bob, gin.H{"name": "Bob's"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/templates/"+tplID, admin, gin.H{"description": "ok"}).Code)
}

func TestPreviewAndPopout(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	tplID := s.createTemplate(t, alice, "Look")

	w := s.do(t, http.MethodPost, "/api/preview", alice, gin.H{"templateId": tplID, "name": "Live"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var preview struct {
		HTML   string `json:"html"`
		Iframe string `json:"iframe"`
	}
	decode(t, w, &preview)
	assert.Contains(t, preview.HTML, "Live")
	assert.Contains(t, preview.Iframe, `sandbox="allow-scripts allow-same-origin"`)

	w = s.do(t, http.MethodPost, "/api/preview/popout", alice, gin.H{"templateId": tplID, "name": "Popped"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var popout service.Popout
	decode(t, w, &popout)

	w = s.do(t, http.MethodGet, "/preview/"+popout.Token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SandboxCSP, w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, w.Body.String(), "Popped")

	w = s.do(t, http.MethodGet, "/preview/"+popout.Token, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "This preview has expired")
}

func TestPreview_MissingSlot(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	w := s.do(t, http.MethodPost, "/api/templates", alice, gin.H{"name": "Bare", "htmlContent": "<p>hi</p>"})
	require.Equal(t, http.StatusCreated, w.Code)
	var tpl struct {
		ID           string   `json:"id"`
		MissingSlots []string `json:"missingSlots"`
	}
	decode(t, w, &tpl)
	assert.Equal(t, []string{"questions"}, tpl.MissingSlots)

	w = s.do(t, http.MethodPost, "/api/preview", alice, gin.H{"templateId": tpl.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldsOf(t, w), "templateId")
}

func TestPlayer(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	tplID := s.createTemplate(t, alice, "Look")
	testID := s.createTest(t, alice, gin.H{"name": "Public quiz", "templateId": tplID})
	bareID := s.createTest(t, alice, gin.H{"name": "No template"})

	w := s.do(t, http.MethodGet, "/play/"+testID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors *")
	assert.Contains(t, w.Body.String(), "Public quiz")

	w = s.do(t, http.MethodGet, "/play/"+bareID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), render.NoTemplateMessage)

	w = s.do(t, http.MethodGet, "/play/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestEmbedAndExport(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 1, model.Author)
	tplID := s.createTemplate(t, alice, "Look")
	testID := s.createTest(t, alice, gin.H{"name": "Exported", "templateId": tplID})

	w := s.do(t, http.MethodGet, "/api/tests/"+testID+"/embed", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var embed struct {
		PlayerURL string `json:"playerUrl"`
		Snippet   string `json:"snippet"`
	}
	decode(t, w, &embed)
	assert.Equal(t, "http://quiz.test/play/"+testID, embed.PlayerURL)
	assert.Equal(t, render.EmbedSnippet("http://quiz.test", testID), embed.Snippet)

	w = s.do(t, http.MethodGet, "/api/tests/"+testID+"/export", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Exported")
}

func TestAdminSettings(t *testing.T) {
	s := newTestServer(t)
	author := s.token(t, 1, model.Author)
	admin := s.token(t, 2, model.Admin)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/settings", author, nil).Code)

	w := s.do(t, http.MethodPost, "/api/admin/settings", admin, gin.H{"settings": gin.H{"asset_storage": "ftp"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldsOf(t, w), "asset_storage")

	w = s.do(t, http.MethodPost, "/api/admin/settings", admin, gin.H{"settings": gin.H{"asset_storage": "minio"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var settings []model.AdminSetting
	decode(t, w, &settings)
	values := map[string]string{}
	for _, st := range settings {
		values[st.Key] = st.Value
	}
	assert.Equal(t, "minio", values["asset_storage"])
	assert.Equal(t, "sqlite", values["storage_backend"])
}
