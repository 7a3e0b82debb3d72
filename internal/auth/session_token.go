package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenSigner はセッションCookie値の署名・検証を行う。
// Cookie値は "<sessionID>.<hex(hmac-sha256(sessionID))>" の形式。
// 署名の検証はDB参照の前に行われ、改ざんされたCookieはストアに到達しない。
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner はTokenSignerを生成する。
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign はセッションIDを署名付きCookie値に変換する。
func (s *TokenSigner) Sign(sessionID string) string {
	return sessionID + "." + s.signature(sessionID)
}

// Verify は署名付きCookie値を検証し、セッションIDを取り出す。
// 形式不正・署名不一致の場合はエラーを返す。
func (s *TokenSigner) Verify(token string) (string, error) {
	sessionID, sig, ok := strings.Cut(token, ".")
	if !ok || sessionID == "" || sig == "" {
		return "", fmt.Errorf("malformed session token")
	}

	expected := s.signature(sessionID)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", fmt.Errorf("session token signature mismatch")
	}

	return sessionID, nil
}

func (s *TokenSigner) signature(sessionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}
