package mood

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	activityservice "github.com/zhouzirui/mindful/backend/internal/service/activity"
	chatservice "github.com/zhouzirui/mindful/backend/internal/service/chat"
	moodservice "github.com/zhouzirui/mindful/backend/internal/service/mood"
)

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service, string) {
	t.Helper()
	chatSvc := chatservice.NewService()
	handler := New(moodservice.NewService(), activityservice.NewService(), chatSvc)

	session, err := chatSvc.CreateSession(context.Background(), persona.DefaultID, "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, session.ID
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestRecordMood(t *testing.T) {
	r, _, sessionID := setupRouter(t)

	resp := post(r, "/sessions/"+sessionID+"/moods", `{"mood":7,"emotions":["Calm"],"notes":"walked outside"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	list := get(r, "/sessions/"+sessionID+"/moods")
	var entries []map[string]any
	if err := json.Unmarshal(list.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0]["notes"] != "walked outside" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestRecordMoodValidation(t *testing.T) {
	r, _, sessionID := setupRouter(t)

	if resp := post(r, "/sessions/"+sessionID+"/moods", `{"mood":12}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range mood, got %d", resp.Code)
	}
	if resp := post(r, "/sessions/"+sessionID+"/moods", `{"mood":5}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for untouched form, got %d", resp.Code)
	}
	if resp := post(r, "/sessions/missing/moods", `{"mood":7}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}
}

func TestProgressCountsExchanges(t *testing.T) {
	r, chatSvc, sessionID := setupRouter(t)
	ctx := context.Background()

	for _, msg := range []chat.Message{
		{SessionID: sessionID, Sender: chat.SenderAssistant, Content: "Hello!"},
		{SessionID: sessionID, Sender: chat.SenderUser, Content: "hi"},
		{SessionID: sessionID, Sender: chat.SenderAssistant, Content: "How are you?"},
	} {
		if _, err := chatSvc.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}
	post(r, "/sessions/"+sessionID+"/moods", `{"mood":8,"emotions":["Happy"]}`)

	resp := get(r, "/sessions/"+sessionID+"/progress")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var progress Progress
	if err := json.Unmarshal(resp.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if progress.Exchanges != 1 || progress.TotalEntries != 1 || progress.AverageMood != 8 || progress.StreakDays != 1 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if len(progress.Weekly) != 7 {
		t.Fatalf("expected 7 weekly points, got %d", len(progress.Weekly))
	}
}

func TestRecordActivity(t *testing.T) {
	r, _, sessionID := setupRouter(t)

	body := `{"kind":"cbt","exercise":"thought-challenge","title":"Challenge a thought","responses":{"situation":"exam tomorrow"}}`
	resp := post(r, "/sessions/"+sessionID+"/activities", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	list := get(r, "/sessions/"+sessionID+"/activities")
	var records []map[string]any
	if err := json.Unmarshal(list.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode activities: %v", err)
	}
	if len(records) != 1 || records[0]["exercise"] != "thought-challenge" {
		t.Fatalf("unexpected activities: %+v", records)
	}
}

func TestRecordActivityValidation(t *testing.T) {
	r, _, sessionID := setupRouter(t)
	path := "/sessions/" + sessionID + "/activities"

	cases := map[string]string{
		"unknown kind":          `{"kind":"yoga","exercise":"breathing"}`,
		"mismatched exercise":   `{"kind":"cbt","exercise":"breathing"}`,
		"mindfulness no length": `{"kind":"mindfulness","exercise":"breathing"}`,
		"negative duration":     `{"kind":"mindfulness","exercise":"breathing","durationMinutes":-5}`,
	}
	for name, body := range cases {
		if resp := post(r, path, body); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, resp.Code)
		}
	}

	resp := post(r, path, `{"kind":"yoga","exercise":"breathing"}`)
	if !strings.Contains(resp.Body.String(), "kind must be one of") {
		t.Fatalf("unexpected error body %s", resp.Body.String())
	}

	if resp := post(r, "/sessions/missing/activities", `{"kind":"cbt","exercise":"exposure"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}
}

func TestProgressIncludesActivitiesAndAchievements(t *testing.T) {
	r, _, sessionID := setupRouter(t)
	path := "/sessions/" + sessionID

	post(r, path+"/moods", `{"mood":6,"emotions":["Calm"]}`)
	post(r, path+"/activities", `{"kind":"cbt","exercise":"exposure"}`)
	post(r, path+"/activities", `{"kind":"mindfulness","exercise":"meditation","durationMinutes":60}`)
	post(r, path+"/activities", `{"kind":"mindfulness","exercise":"breathing","durationMinutes":45}`)

	resp := get(r, path+"/progress")
	var progress Progress
	if err := json.Unmarshal(resp.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}

	if progress.ExercisesCompleted != 1 || progress.MindfulnessSessions != 2 || progress.MindfulMinutes != 105 {
		t.Fatalf("unexpected totals: %+v", progress.Totals)
	}
	if len(progress.Activities) != 3 || progress.Activities[0].Completed != 1 {
		t.Fatalf("unexpected activity targets: %+v", progress.Activities)
	}

	earned := map[string]bool{}
	for _, a := range progress.Achievements {
		earned[a.ID] = a.Earned
	}
	if !earned["first-mood"] || !earned["cbt-starter"] || !earned["mindful-minutes"] || earned["week-streak"] {
		t.Fatalf("unexpected achievements: %+v", progress.Achievements)
	}
}
