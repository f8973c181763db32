package lobbyhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"studylobby/internal/auth"
	"studylobby/internal/services/lobby"
)

const testSecret = "test-secret"

type nopNotifier struct{}

func (nopNotifier) JoinRoom(string, string)                {}
func (nopNotifier) LeaveRoom(string, string)               {}
func (nopNotifier) ActiveLobby(string) (string, bool)      { return "", false }
func (nopNotifier) RosterUpdate(string, []string)          {}
func (nopNotifier) MessageDelivered(string, lobby.Message) {}
func (nopNotifier) LobbyClosed(string, string)             {}

type nopDirectory struct{}

func (nopDirectory) DirectoryChanged(string, string) {}

type nopArchiver struct{}

func (nopArchiver) SessionClosed(lobby.ClosedSession) {}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := lobby.NewStore(64)
	svc := lobby.NewLobbyService(store, nopNotifier{}, nopDirectory{}, nopArchiver{})
	engine := gin.New()
	New(svc, auth.NewVerifier(testSecret)).Register(engine)
	return engine
}

func bearer(t *testing.T, username string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.RegisteredClaims{Subject: username}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func doCreate(t *testing.T, engine *gin.Engine, authHeader, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/lobbies/create", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	engine.ServeHTTP(rec, r)
	return rec
}

func TestCreateAndListLobbies(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)

	rec := doCreate(t, engine, bearer(t, "alice"),
		`{"name":"Calc Study","className":"MAT101","school":"State U","maxUsers":2}`)
	req.Equal(http.StatusCreated, rec.Code)

	var created lobby.Summary
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	req.Equal("alice", created.Host)
	req.Equal(1, created.CurrentUsers)

	listRec := httptest.NewRecorder()
	engine.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet,
		"/lobbies/list?className=MAT101&school=State+U", nil))
	req.Equal(http.StatusOK, listRec.Code)

	var listed []lobby.Summary
	req.NoError(json.Unmarshal(listRec.Body.Bytes(), &listed))
	req.Len(listed, 1)
	req.Equal(created.LobbyID, listed[0].LobbyID)

	infoRec := httptest.NewRecorder()
	engine.ServeHTTP(infoRec, httptest.NewRequest(http.MethodGet, "/lobby/"+created.LobbyID, nil))
	req.Equal(http.StatusOK, infoRec.Code)
}

func TestCreateRejectsUnauthenticated(t *testing.T) {
	rec := doCreate(t, newTestEngine(t), "",
		`{"name":"Calc Study","className":"MAT101","school":"State U","maxUsers":2}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRejectsBadConfig(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(t)

	// binding catches out-of-range capacity
	rec := doCreate(t, engine, bearer(t, "alice"),
		`{"name":"Calc Study","className":"MAT101","school":"State U","maxUsers":9}`)
	req.Equal(http.StatusBadRequest, rec.Code)

	// the store catches whitespace-only names
	rec = doCreate(t, engine, bearer(t, "alice"),
		`{"name":"   ","className":"MAT101","school":"State U","maxUsers":2}`)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestListRequiresCourseAndSchool(t *testing.T) {
	engine := newTestEngine(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobbies/list", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfoUnknownLobby(t *testing.T) {
	engine := newTestEngine(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobby/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
