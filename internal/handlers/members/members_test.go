package members

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/db"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeStore struct {
	members []db.Member
}

func (f *fakeStore) ListMembers(context.Context) ([]db.Member, error) { return f.members, nil }

func (f *fakeStore) CreateMember(_ context.Context, name, email, _ string, admin bool) (db.Member, error) {
	for _, m := range f.members {
		if m.Email == email {
			return db.Member{}, fmt.Errorf("%w: member %s already exists", reservation.ErrConflict, email)
		}
	}
	role := db.RoleMember
	if admin {
		role = db.RoleAdmin
	}
	m := db.Member{ID: int64(len(f.members) + 1), Name: name, Email: email, Role: role, CreatedAt: time.Now()}
	f.members = append(f.members, m)
	return m, nil
}

func newRouter(s Store) *gin.Engine {
	h := New(s)
	r := gin.New()
	r.GET("/members", h.List)
	r.POST("/members", h.Create)
	return r
}

func post(r http.Handler, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/members", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateThenList(t *testing.T) {
	store := &fakeStore{}
	r := newRouter(store)

	w := post(r, map[string]any{"name": "kim", "email": "kim@example.com", "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/members/1", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var body struct {
		Data struct {
			Members []memberResponse `json:"members"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &body))
	require.Len(t, body.Data.Members, 1)
	assert.Equal(t, "kim@example.com", body.Data.Members[0].Email)
	assert.Equal(t, db.RoleMember, body.Data.Members[0].Role)
}

func TestCreateRejects(t *testing.T) {
	store := &fakeStore{members: []db.Member{{ID: 1, Email: "kim@example.com"}}}
	r := newRouter(store)

	assert.Equal(t, http.StatusConflict, post(r, map[string]any{"name": "kim", "email": "kim@example.com", "password": "password1"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, map[string]any{"name": "lee", "email": "lee@example.com", "password": "short"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, map[string]any{"name": "  ", "email": "lee@example.com", "password": "password1"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, map[string]any{"name": "lee", "email": "lee", "password": "password1"}).Code)
}
