package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfeed/backend/internal/models"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
	seq  int
	fail error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, models.ErrEmailTaken
		}
	}
	m.seq++
	cp := *u
	cp.ID = fmt.Sprintf("u%d", m.seq)
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == *upd.Email {
				return nil, models.ErrEmailTaken
			}
		}
	}
	upd.Apply(u)
	cp := *u
	return &cp, nil
}

func newTestHandler() (*Handler, *memUsers) {
	users := newMemUsers()
	return NewHandler(users, NewTokenService("secret", 7*24*time.Hour), nil), users
}

func do(t *testing.T, fn http.HandlerFunc, method, body string, id *Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/auth", strings.NewReader(body))
	if id != nil {
		req = req.WithContext(WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestSignupLoginMe(t *testing.T) {
	h, _ := newTestHandler()

	rec := do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var signup models.AuthResponse
	decode(t, rec, &signup)
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "A", signup.User.Name)
	assert.Equal(t, models.DefaultRole, signup.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, h.Login, http.MethodPost, `{"email":"a@x.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = do(t, h.Login, http.MethodPost, `{"email":"a@x.com","password":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.AuthResponse
	decode(t, rec, &login)

	id, err := h.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, id.ID)
	assert.Equal(t, models.DefaultRole, id.Role)

	rec = do(t, h.Me, http.MethodGet, "", &id)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	decode(t, rec, &me)
	assert.Equal(t, "A", me["name"])
	assert.Equal(t, "a@x.com", me["email"])
	assert.NotContains(t, me, "password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, users := newTestHandler()

	rec := do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.Signup, http.MethodPost, `{"name":"B","email":"a@x.com","password":"p2","role":"admin"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, users.byID, 1)
}

func TestSignupMissingFields(t *testing.T) {
	h, users := newTestHandler()
	for _, body := range []string{
		`{"email":"a@x.com","password":"p1"}`,
		`{"name":"A","password":"p1"}`,
		`{"name":"A","email":"a@x.com"}`,
		`{"name":"   ","email":"a@x.com","password":"p1"}`,
		`not json`,
	} {
		rec := do(t, h.Signup, http.MethodPost, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, users.byID)
}

func TestSignupPasswordTooLong(t *testing.T) {
	h, users := newTestHandler()
	long := strings.Repeat("x", 80)

	rec := do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"`+long+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "72 bytes")
	assert.Empty(t, users.byID)

	rec = do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"`+strings.Repeat("x", 72)+`"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupKeepsProfileFields(t *testing.T) {
	h, users := newTestHandler()
	rec := do(t, h.Signup, http.MethodPost,
		`{"name":"A","email":"a@x.com","password":"p1","role":"admin","university":"MIT","bio":"hi"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := users.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "MIT", u.University)
	assert.Equal(t, "hi", u.Bio)
	assert.NotEqual(t, "p1", u.Password)
}

func TestLoginUnknownEmailAndMissingFields(t *testing.T) {
	h, _ := newTestHandler()

	rec := do(t, h.Login, http.MethodPost, `{"email":"nobody@x.com","password":"p1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = do(t, h.Login, http.MethodPost, `{"email":"a@x.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing fields")
}

func TestLoginThrottled(t *testing.T) {
	h, _ := newTestHandler()
	h.limiter, _ = newTestLimiter(t, 2)

	do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"p1"}`, nil)
	for i := 0; i < 2; i++ {
		rec := do(t, h.Login, http.MethodPost, `{"email":"a@x.com","password":"bad"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := do(t, h.Login, http.MethodPost, `{"email":"a@x.com","password":"p1"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestStoreFailureIsServerError(t *testing.T) {
	h, users := newTestHandler()
	users.fail = fmt.Errorf("mongo: connection refused")

	rec := do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"p1"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}

func TestMeUnknownUser(t *testing.T) {
	h, _ := newTestHandler()
	rec := do(t, h.Me, http.MethodGet, "", &Identity{ID: "ghost", Role: "student"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	h, users := newTestHandler()
	do(t, h.Signup, http.MethodPost, `{"name":"A","email":"a@x.com","password":"p1","bio":"old","university":"MIT"}`, nil)
	do(t, h.Signup, http.MethodPost, `{"name":"B","email":"b@x.com","password":"p2"}`, nil)
	a, err := users.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	id := &Identity{ID: a.ID, Role: a.Role}

	t.Run("absent fields unchanged", func(t *testing.T) {
		rec := do(t, h.UpdateMe, http.MethodPut, `{"name":"Alice"}`, id)
		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]interface{}
		decode(t, rec, &got)
		assert.Equal(t, "Alice", got["name"])
		assert.Equal(t, "old", got["bio"])
		assert.Equal(t, "MIT", got["university"])
		assert.NotContains(t, got, "password")
	})

	t.Run("present empty clears optional fields", func(t *testing.T) {
		rec := do(t, h.UpdateMe, http.MethodPut, `{"bio":"","university":""}`, id)
		require.Equal(t, http.StatusOK, rec.Code)
		u, err := users.GetUserByID(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Empty(t, u.Bio)
		assert.Empty(t, u.University)
		assert.Equal(t, "Alice", u.Name)
	})

	t.Run("required fields cannot be blanked", func(t *testing.T) {
		rec := do(t, h.UpdateMe, http.MethodPut, `{"name":"  "}`, id)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("first blank field is reported", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			rec := do(t, h.UpdateMe, http.MethodPut, `{"role":"","email":"","name":""}`, id)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"name cannot be empty"}`, rec.Body.String())
		}
	})

	t.Run("email owned by another user", func(t *testing.T) {
		rec := do(t, h.UpdateMe, http.MethodPut, `{"email":"b@x.com"}`, id)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := do(t, h.UpdateMe, http.MethodPut, `{"name":"x"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
