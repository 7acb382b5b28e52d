package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"inkfold/internal/domain"
	"inkfold/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestSupabaseJWTVerifier_VerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	verifier := NewJWTVerifierWithKeyfunc(func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sign := func(claims models.SupabaseClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	valid := func() models.SupabaseClaims {
		return models.SupabaseClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email: "a@b.c",
			Role:  "authenticated",
		}
	}

	tests := []struct {
		name    string
		token   func() string
		wantErr bool
	}{
		{name: "valid", token: func() string { return sign(valid()) }},
		{name: "expired", wantErr: true, token: func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return sign(c)
		}},
		{name: "anonymous role", wantErr: true, token: func() string {
			c := valid()
			c.Role = "anon"
			return sign(c)
		}},
		{name: "missing subject", wantErr: true, token: func() string {
			c := valid()
			c.Subject = ""
			return sign(c)
		}},
		{name: "hmac algorithm", wantErr: true, token: func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, valid()).SignedString([]byte("secret"))
			return s
		}},
		{name: "garbage", wantErr: true, token: func() string { return "not.a.jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(tt.token())
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnauthorized) {
					t.Errorf("error = %v, want ErrUnauthorized", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.GetUserID() != "user-1" {
				t.Errorf("subject = %q", claims.GetUserID())
			}
		})
	}
}
