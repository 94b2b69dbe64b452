package auth_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/jaekwang-park/task-sync/internal/auth"
)

func TestComputeSecretHash(t *testing.T) {
	tests := []struct {
		name         string
		username     string
		clientID     string
		clientSecret string
	}{
		{"typical input", "testuser@example.com", "abc123clientid", "supersecret"},
		{"different user", "other@example.com", "abc123clientid", "supersecret"},
		{"empty username", "", "abc123clientid", "supersecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := referenceHash(tt.username, tt.clientID, tt.clientSecret)
			got := auth.ComputeSecretHash(tt.username, tt.clientID, tt.clientSecret)
			if got != want {
				t.Errorf("ComputeSecretHash() = %q, want %q", got, want)
			}
		})
	}
}

func TestComputeSecretHash_DeterministicAndDistinct(t *testing.T) {
	h1 := auth.ComputeSecretHash("user", "client", "secret")
	h2 := auth.ComputeSecretHash("user", "client", "secret")
	if h1 != h2 {
		t.Error("same inputs should produce same hash")
	}

	h3 := auth.ComputeSecretHash("user2", "client", "secret")
	if h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}
}

// referenceHash is an independent rendering of the documented formula:
// Base64(HMAC_SHA256(clientSecret, username + clientID)).
func referenceHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
