package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGitHubOAuthProvider_GetLoginURL_ContainsRequiredParams(t *testing.T) {
	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:8080/auth/github/callback",
	})

	url := provider.GetLoginURL("test-state-value")

	tests := []struct {
		name     string
		contains string
	}{
		{"client_id", "client_id=test-client-id"},
		{"redirect_uri", "redirect_uri="},
		{"state", "state=test-state-value"},
		{"scope", "user%3Aemail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !containsStr(url, tt.contains) {
				t.Errorf("URL should contain %q, got %q", tt.contains, url)
			}
		})
	}
}

func TestGitHubOAuthProvider_Name(t *testing.T) {
	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{})
	if provider.Name() != "github" {
		t.Errorf("Name() = %q, want %q", provider.Name(), "github")
	}
}

func TestGitHubOAuthProvider_ExchangeCode_Success(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// GitHubはAccept: application/jsonを要求する
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header: %q", r.Header.Get("Accept"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "gh-access-token",
			"token_type":   "bearer",
		})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-access-token" {
			t.Errorf("unexpected Authorization header: %q", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         12345,
			"login":      "octocat",
			"name":       "The Octocat",
			"email":      "octocat@github.com",
			"avatar_url": "https://avatars.githubusercontent.com/u/12345",
		})
	}))
	defer userServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenURL:     tokenServer.URL,
		UserURL:      userServer.URL,
	})

	userInfo, err := provider.ExchangeCode(context.Background(), "test-auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if userInfo.Provider != "github" {
		t.Errorf("provider = %q, want %q", userInfo.Provider, "github")
	}
	if userInfo.ProviderUserID != "12345" {
		t.Errorf("providerUserID = %q, want %q", userInfo.ProviderUserID, "12345")
	}
	if userInfo.Email != "octocat@github.com" {
		t.Errorf("email = %q, want %q", userInfo.Email, "octocat@github.com")
	}
	if userInfo.Name != "The Octocat" {
		t.Errorf("name = %q, want %q", userInfo.Name, "The Octocat")
	}
}

func TestGitHubOAuthProvider_ExchangeCode_PrivateEmail_FetchesPrimary(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok"})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// メール非公開ユーザーはemailがnullで返る
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    6789,
			"login": "private-user",
		})
	}))
	defer userServer.Close()

	emailsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"email": "secondary@example.com", "primary": false, "verified": true},
			{"email": "primary@example.com", "primary": true, "verified": true},
		})
	}))
	defer emailsServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		TokenURL:  tokenServer.URL,
		UserURL:   userServer.URL,
		EmailsURL: emailsServer.URL,
	})

	userInfo, err := provider.ExchangeCode(context.Background(), "code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if userInfo.Email != "primary@example.com" {
		t.Errorf("email = %q, want primary verified email", userInfo.Email)
	}
	// 表示名が無い場合はloginにフォールバックする
	if userInfo.Name != "private-user" {
		t.Errorf("name = %q, want login fallback", userInfo.Name)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_EmailFetchFails_LeavesEmailEmpty(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok"})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "login": "u42"})
	}))
	defer userServer.Close()

	emailsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer emailsServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		TokenURL:  tokenServer.URL,
		UserURL:   userServer.URL,
		EmailsURL: emailsServer.URL,
	})

	userInfo, err := provider.ExchangeCode(context.Background(), "code")
	if err != nil {
		t.Fatalf("login should still succeed, got %v", err)
	}
	if userInfo.Email != "" {
		t.Errorf("email should stay empty, got %q", userInfo.Email)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_TokenError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tokenServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		TokenURL: tokenServer.URL,
	})

	if _, err := provider.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected error for token exchange failure")
	}
}
