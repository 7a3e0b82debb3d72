// Package model はドメインモデルを定義する。
package model

import "time"

// Note はユーザーが作成するノートを表す。
// 所有者は作成時に確定し、以後変更されない。
// 所有者以外からは参照・更新・削除のいずれも不可能。
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
