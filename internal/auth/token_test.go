package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ytclip-server/internal/config"
)

func testService(ttl time.Duration) *Service {
	return NewService(&config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    ttl,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	s := testService(time.Hour)

	session, signed, err := s.CreateSession("uid-1", "user@example.com", "Test User", "", "upstream-token")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	claims, err := s.VerifyToken(signed)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.SessionID != session.ID {
		t.Errorf("session id = %q, want %q", claims.SessionID, session.ID)
	}
	if claims.Email != "user@example.com" || claims.Subject != "uid-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyTokenFailures(t *testing.T) {
	s := testService(time.Hour)
	_, signed, err := s.CreateSession("uid-1", "user@example.com", "Test User", "", "tok")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		token   string
		service *Service
		wantErr error
	}{
		{name: "empty token", token: "", service: s, wantErr: ErrNoToken},
		{name: "garbage token", token: "not.a.jwt", service: s, wantErr: ErrTokenInvalid},
		{name: "wrong secret", token: signed, service: NewService(&config.Config{SessionSecret: "other", SessionTTL: time.Hour}), wantErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.service.VerifyToken(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	s := testService(-time.Minute) // already expired at issue time
	_, signed, err := s.CreateSession("uid-1", "user@example.com", "Test User", "", "tok")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.VerifyToken(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestSessionFromRequestSources(t *testing.T) {
	s := testService(time.Hour)
	session, signed, err := s.CreateSession("uid-1", "user@example.com", "Test User", "", "tok")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/download-oauth", nil)
		r.Header.Set("Authorization", "Bearer "+signed)

		got, err := s.SessionFromRequest(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != session.ID {
			t.Errorf("resolved session %q, want %q", got.ID, session.ID)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/auth/status", nil)
		r.AddCookie(&http.Cookie{Name: sessionCookie, Value: signed})

		got, err := s.SessionFromRequest(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != session.ID {
			t.Errorf("resolved session %q, want %q", got.ID, session.ID)
		}
	})

	t.Run("no credential", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/download-oauth", nil)
		if _, err := s.SessionFromRequest(r); !errors.Is(err, ErrNoToken) {
			t.Errorf("err = %v, want ErrNoToken", err)
		}
	})
}

func TestSessionGoneAfterLogout(t *testing.T) {
	s := testService(time.Hour)
	session, signed, err := s.CreateSession("uid-1", "user@example.com", "Test User", "", "tok")
	if err != nil {
		t.Fatal(err)
	}

	s.store.deleteSession(session.ID)

	r := httptest.NewRequest("GET", "/api/download-oauth", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	if _, err := s.SessionFromRequest(r); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired for a dropped session", err)
	}
}

func TestConsumeStateIsOneShot(t *testing.T) {
	s := testService(time.Hour)
	s.store.putState("state-1")

	if !s.store.consumeState("state-1") {
		t.Fatal("first consume failed")
	}
	if s.store.consumeState("state-1") {
		t.Fatal("state replay accepted")
	}
	if s.store.consumeState("never-issued") {
		t.Fatal("unknown state accepted")
	}
}
