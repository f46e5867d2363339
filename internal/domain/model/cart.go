package model

import "time"

// カート。ログイン済みならuser_id、ゲストならsession_idで引く。
// {user_id有り & is_guest=false} か {session_id有り & is_guest=true} の
// どちらか一方だけが成り立つ。
// 1ユーザーにつき非ゲストカートは1つ、1セッションにつきゲストカートは1つ
// （どちらもuniqueIndexで担保。NULLは一意制約に掛からない）。
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"uniqueIndex" json:"user_id"`
	SessionID *string   `gorm:"type:varchar(64);uniqueIndex" json:"session_id"`
	IsGuest   bool      `gorm:"not null" json:"is_guest"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
