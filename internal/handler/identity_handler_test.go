package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/session"
)

func identityRouter(accounts *fakeAccounts, sessions *fakeSessions, store session.Store) *gin.Engine {
	h := NewIdentityHandler(accounts, sessions, store)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	authed := r.Group("/", withClaims(testCandidateID, testSessionID))
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
	return r
}

func TestIdentityHandler_Register(t *testing.T) {
	valid := gin.H{
		"name":          "Ravi Kumar",
		"date_of_birth": "2000-05-14",
		"phone_number":  "9876543210",
		"country_code":  "+91",
	}

	tests := []struct {
		name       string
		body       gin.H
		err        error
		wantStatus int
		wantCode   string
	}{
		{"created", valid, nil, http.StatusCreated, ""},
		{"duplicate phone", valid, service.ErrPhoneRegistered, http.StatusConflict, "PHONE_ALREADY_REGISTERED"},
		{"missing name", gin.H{"date_of_birth": "2000-05-14", "phone_number": "9876543210", "country_code": "+91"}, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"future birth date", gin.H{"name": "Ravi", "date_of_birth": "2999-01-01", "phone_number": "9876543210", "country_code": "+91"}, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"non numeric phone", gin.H{"name": "Ravi", "date_of_birth": "2000-05-14", "phone_number": "98765abc10", "country_code": "+91"}, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{}
			r := identityRouter(&fakeAccounts{registerErr: tt.err}, sessions, session.NewMemoryStore())

			w, env := doJSON(t, r, http.MethodPost, "/register", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errCode(env); got != tt.wantCode {
				t.Fatalf("code = %q, want %q", got, tt.wantCode)
			}
			if tt.wantStatus != http.StatusCreated {
				if len(sessions.started) != 0 {
					t.Fatal("session opened for a failed registration")
				}
				return
			}

			var resp model.SessionResponse
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Token != "signed-token" || resp.Candidate.CandidateID != testCandidateID {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestIdentityHandler_Login(t *testing.T) {
	body := gin.H{"name": "Ravi Kumar", "phone_number": "9876543210", "country_code": "+91"}

	t.Run("success", func(t *testing.T) {
		r := identityRouter(&fakeAccounts{}, &fakeSessions{}, session.NewMemoryStore())
		w, _ := doJSON(t, r, http.MethodPost, "/login", body)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("unknown candidate", func(t *testing.T) {
		r := identityRouter(&fakeAccounts{loginErr: service.ErrInvalidCredentials}, &fakeSessions{}, session.NewMemoryStore())
		w, env := doJSON(t, r, http.MethodPost, "/login", body)
		if w.Code != http.StatusUnauthorized || errCode(env) != "INVALID_CREDENTIALS" {
			t.Fatalf("got %d %q", w.Code, errCode(env))
		}
	})

	t.Run("already attempted", func(t *testing.T) {
		r := identityRouter(&fakeAccounts{loginErr: service.ErrAlreadyAttempted}, &fakeSessions{}, session.NewMemoryStore())
		w, env := doJSON(t, r, http.MethodPost, "/login", body)
		if w.Code != http.StatusConflict || errCode(env) != "ALREADY_ATTEMPTED" {
			t.Fatalf("got %d %q", w.Code, errCode(env))
		}
		var data struct {
			HasAttempted bool `json:"has_attempted"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || !data.HasAttempted {
			t.Fatalf("has_attempted missing: %s", env.Data)
		}
	})
}

func TestIdentityHandler_MeAndLogout(t *testing.T) {
	store := session.NewMemoryStore()
	sessions := &fakeSessions{}
	r := identityRouter(&fakeAccounts{}, sessions, store)

	w, env := doJSON(t, r, http.MethodGet, "/me", nil)
	if w.Code != http.StatusNotFound || errCode(env) != "NO_ACTIVE_SESSION" {
		t.Fatalf("me without identity: %d %q", w.Code, errCode(env))
	}

	if err := store.SaveIdentity(context.Background(), testSessionID, testIdentity); err != nil {
		t.Fatal(err)
	}
	w, env = doJSON(t, r, http.MethodGet, "/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	var data struct {
		Candidate model.CandidateIdentity `json:"candidate"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Candidate != testIdentity {
		t.Fatalf("identity = %+v", data.Candidate)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	if len(sessions.ended) != 1 || sessions.ended[0] != testCandidateID+"/"+testSessionID {
		t.Fatalf("ended = %v", sessions.ended)
	}
}
