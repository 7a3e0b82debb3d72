// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/notedeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	// 片方だけ作成された中途半端な状態は残さない。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// NoteRepository はノートデータの永続化インターフェース。
// 更新・削除は単一の原子的ステートメントでid AND user_idを条件にする。
// 「存在しない」と「他人の所有」を区別する手段は提供しない。
type NoteRepository interface {
	// Create はノートを作成する。
	Create(ctx context.Context, note *model.Note) error

	// FindByID は指定ユーザーが所有するノートを取得する。
	// 存在しない、または他ユーザーの所有の場合はnilを返す。
	FindByID(ctx context.Context, id, userID string) (*model.Note, error)

	// ListByUserID は指定ユーザーの全ノートを作成日時順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Note, error)

	// Update はid AND user_idが一致するノートのタイトル・本文を更新し、
	// updated_atを現在時刻に更新する。一致する行がない場合はnilを返す。
	Update(ctx context.Context, id, userID, title, content string) (*model.Note, error)

	// Delete はid AND user_idが一致するノートを削除する。
	// 削除された場合はtrueを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)
}
