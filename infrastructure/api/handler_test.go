package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"meet-lab/domain"
	"meet-lab/errors"
	"meet-lab/mocks"
	"meet-lab/notification"
	"meet-lab/repositories"
	"meet-lab/services"
)

type apiFixture struct {
	server    *httptest.Server
	store     *mocks.MockIMeetingRepository
	directory *mocks.MockIUserDirectory
}

func setupAPI(t *testing.T) *apiFixture {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMeetingRepository(ctrl)
	directory := mocks.NewMockIUserDirectory(ctrl)

	log := slog.Default()
	scheduling := services.NewSchedulingService(log, store, directory, nil,
		notification.NewNoopGateway(log), "https://meet.example.com")

	mux := http.NewServeMux()
	NewHandler(log, scheduling, directory).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, store: store, directory: directory}
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAPI_CreateUser(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	f.directory.EXPECT().FindByEmail("alice@example.com").
		Return(repositories.User{}, errors.ErrUserNotFound)
	f.directory.EXPECT().CreateUser("alice@example.com", "Alice").
		Return("alice-id", nil)

	resp, body := postJSON(t, f.server.URL+"/api/users",
		`{"email":"alice@example.com","name":"Alice"}`)

	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal("alice-id", body["id"])
}

func TestAPI_CreateUser_ExistingIsIdempotent(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	f.directory.EXPECT().FindByEmail("alice@example.com").
		Return(repositories.User{ID: "alice-id", Email: "alice@example.com"}, nil)

	resp, body := postJSON(t, f.server.URL+"/api/users",
		`{"email":"alice@example.com","name":"Alice"}`)

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("alice-id", body["id"])
}

func TestAPI_CreateInstantMeeting(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	f.directory.EXPECT().FindByEmail("alice@example.com").
		Return(repositories.User{ID: "alice-id", Email: "alice@example.com", Name: "Alice"}, nil)
	f.store.EXPECT().Save(gomock.Any()).Return(nil)

	resp, body := postJSON(t, f.server.URL+"/api/meetings",
		`{"creator_email":"alice@example.com","title":"Standup"}`)

	req.Equal(http.StatusCreated, resp.StatusCode)
	req.NotEmpty(body["meeting_id"])
	req.Contains(body["link"], "/meeting-room/")
}

func TestAPI_CreateInstantMeeting_UnknownCreator(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	f.directory.EXPECT().FindByEmail("ghost@example.com").
		Return(repositories.User{}, errors.ErrUserNotFound)

	resp, body := postJSON(t, f.server.URL+"/api/meetings",
		`{"creator_email":"ghost@example.com","title":"Standup"}`)

	req.Equal(http.StatusNotFound, resp.StatusCode)
	req.NotEmpty(body["message"])
}

func TestAPI_ScheduleMeeting(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	f.directory.EXPECT().FindByEmail("alice@example.com").
		Return(repositories.User{ID: "alice-id", Email: "alice@example.com", Name: "Alice"}, nil)

	var saved domain.Meeting
	f.store.EXPECT().Save(gomock.Any()).
		DoAndReturn(func(m domain.Meeting) error {
			saved = m
			return nil
		})

	when := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	resp, body := postJSON(t, f.server.URL+"/api/meetings/schedule",
		`{"creator_email":"alice@example.com","title":"Quarterly sync",`+
			`"scheduled_at":"`+when+`","participants":["bob@example.com"]}`)

	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal(float64(1), body["invitees"])
	req.Len(saved.Expected, 1)
	req.Equal("bob@example.com", saved.Expected[0].Email)
}

func TestAPI_ScheduleMeeting_InvalidRequest(t *testing.T) {
	req := require.New(t)
	f := setupAPI(t)

	// Malformed participant email fails validation before any lookup
	resp, body := postJSON(t, f.server.URL+"/api/meetings/schedule",
		`{"creator_email":"alice@example.com","title":"Sync",`+
			`"scheduled_at":"2026-09-01T10:00:00Z","participants":["not-an-email"]}`)

	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.NotEmpty(body["message"])
}
