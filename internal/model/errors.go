// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, note, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNoteNotFound     = "NOTE_NOT_FOUND"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidNote      = "INVALID_NOTE"
	ErrCodeUnknownProvider  = "UNKNOWN_PROVIDER"
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewNoteNotFoundError はノート未検出エラーを生成する。
// 「存在しない」と「他ユーザーの所有」は意図的に区別しない。
// 他ユーザーのノートの存在を漏らさないため。
func NewNoteNotFoundError(noteID string) *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  fmt.Sprintf("指定されたノートが見つかりません: %s", noteID),
		Category: "note",
		Action:   "ノートIDを確認してください。",
	}
}

// NewInvalidNoteError はノートのバリデーションエラーを生成する。
func NewInvalidNoteError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidNote,
		Message:  fmt.Sprintf("ノートの内容が不正です: %s", reason),
		Category: "validation",
		Action:   "タイトルと本文を確認してください。",
	}
}

// NewUnknownProviderError は未対応のOAuthプロバイダーが指定された場合のエラーを生成する。
func NewUnknownProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("未対応の認証プロバイダーです: %s", provider),
		Category: "auth",
		Action:   "googleまたはgithubを指定してください。",
	}
}

// NewAuthFailedError はOAuth認証フロー失敗のエラーを生成する。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "再度ログインをお試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
