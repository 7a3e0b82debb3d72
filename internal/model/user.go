// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// EmailとAvatarURLはプロバイダーが提供しない場合、空文字列のまま保持する。
// プレースホルダーで埋めることはしない。
type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdP（Google, GitHub）との紐付け情報を表す。
// (provider, provider_user_id)の組はシステム全体で一意。
// 一度割り当てられたprovider_user_idは変更されない。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// 有効期限は作成時刻からの固定TTLで、アクセスによる延長はしない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
