// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NoteSanitizerService はノートのタイトル・本文をサニタイズし、
// フロントエンドでの表示時にXSS攻撃からユーザーを保護する。
// ノート本文はユーザー生成コンテンツとしてbluemondayのUGCポリシーで処理し、
// タイトルはプレーンテキストとして全タグを除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// NoteSanitizerService はノートコンテンツのサニタイズ機能のインターフェースを定義する。
// ノートの保存前（作成・更新）に使用される。
type NoteSanitizerService interface {
	// SanitizeTitle はタイトルから全てのHTMLタグを除去しプレーンテキストを返す。
	SanitizeTitle(raw string) string
	// SanitizeContent は本文をサニタイズして安全なHTMLを返す。
	// scriptタグやon*イベント属性などの危険な要素を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeContent(raw string) string
}

// noteSanitizer はNoteSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type noteSanitizer struct {
	titlePolicy   *bluemonday.Policy
	contentPolicy *bluemonday.Policy
}

// NewNoteSanitizer はNoteSanitizerServiceの新しいインスタンスを生成する。
// タイトルにはStrictPolicy（全タグ除去）、本文にはUGCPolicy
// （一般的なユーザー生成コンテンツ向けの許可リスト）を使用する。
func NewNoteSanitizer() *noteSanitizer {
	return &noteSanitizer{
		titlePolicy:   bluemonday.StrictPolicy(),
		contentPolicy: bluemonday.UGCPolicy(),
	}
}

// SanitizeTitle はタイトルから全てのHTMLタグを除去する。
func (s *noteSanitizer) SanitizeTitle(raw string) string {
	return s.titlePolicy.Sanitize(raw)
}

// SanitizeContent は本文をサニタイズして安全なHTMLを返す。
func (s *noteSanitizer) SanitizeContent(raw string) string {
	return s.contentPolicy.Sanitize(raw)
}
