package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizsmith/internal/render"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLivePreview(t *testing.T, svc *PreviewService) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc.ServeLivePreview(w, r, alice.UserID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestLivePreview_RendersFrames(t *testing.T) {
	f, svc, _ := newPreviewFixture(t)
	tpl := f.template(t, alice, "Look")
	conn := dialLivePreview(t, svc)

	require.NoError(t, conn.WriteJSON(LiveFrame{Seq: 7, PreviewRequest: PreviewRequest{TemplateID: tpl.ID, Name: "Live quiz"}}))

	var result LiveResult
	require.NoError(t, conn.ReadJSON(&result))
	assert.EqualValues(t, 7, result.Seq)
	assert.Empty(t, result.Error)
	assert.Contains(t, result.HTML, "Live quiz")
}

func TestLivePreview_ReportsErrors(t *testing.T) {
	f, svc, _ := newPreviewFixture(t)
	bare, err := f.templates.Create(alice, TemplateInput{Name: ptr("Bare"), HTMLContent: ptr("<p></p>")})
	require.NoError(t, err)
	conn := dialLivePreview(t, svc)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var result LiveResult
	require.NoError(t, conn.ReadJSON(&result))
	assert.Contains(t, result.Error, "malformed frame")

	require.NoError(t, conn.WriteJSON(LiveFrame{Seq: 2, PreviewRequest: PreviewRequest{TemplateID: bare.ID}}))
	result = LiveResult{}
	require.NoError(t, conn.ReadJSON(&result))
	assert.EqualValues(t, 2, result.Seq)
	assert.Contains(t, result.Fields, "templateId")

	require.NoError(t, conn.WriteJSON(LiveFrame{Seq: 3}))
	result = LiveResult{}
	require.NoError(t, conn.ReadJSON(&result))
	assert.Contains(t, result.HTML, render.NoTemplateMessage)
}
