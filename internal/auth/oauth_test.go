package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleProvider_AuthURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost:8080/auth/google/callback")

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogleProvider_FetchUser(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		want    *GoogleUser
	}{
		{
			name:   "verified profile",
			status: http.StatusOK,
			body:   `{"sub":"g-1","email":" Ada@Example.com","email_verified":true,"name":"Ada"}`,
			want:   &GoogleUser{Sub: "g-1", Email: "ada@example.com", EmailVerified: true, Name: "Ada"},
		},
		{"unverified email", http.StatusOK, `{"sub":"g-1","email":"a@b.c","email_verified":false}`, true, nil},
		{"missing sub", http.StatusOK, `{"email":"a@b.c","email_verified":true}`, true, nil},
		{"upstream error", http.StatusInternalServerError, `{}`, true, nil},
		{"bad json", http.StatusOK, `{`, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewGoogleProvider("id", "secret", "cb")
			p.userInfoURL = srv.URL

			got, err := p.fetchUser(context.Background(), srv.Client())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
