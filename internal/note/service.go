// Package note はノートCRUDのビジネスロジックを提供する。
package note

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/notedeck/internal/config"
	"github.com/hitoshi/notedeck/internal/model"
	"github.com/hitoshi/notedeck/internal/repository"
	"github.com/hitoshi/notedeck/internal/security"
)

// OpRecorder はノート操作のメトリクス記録インターフェース。
type OpRecorder interface {
	RecordNoteCreated()
	RecordNoteUpdated()
	RecordNoteDeleted()
}

// ServiceConfig はノートサービスの設定。
type ServiceConfig struct {
	Validation    config.NoteValidationMode
	TitleMaxLen   int
	ContentMaxLen int
}

// Service はノートに関するビジネスロジックを提供する。
// すべての操作は呼び出し元ユーザーのIDでスコープされる。
type Service struct {
	noteRepo  repository.NoteRepository
	sanitizer security.NoteSanitizerService
	metrics   OpRecorder
	config    ServiceConfig
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	noteRepo repository.NoteRepository,
	sanitizer security.NoteSanitizerService,
	metrics OpRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		noteRepo:  noteRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		config:    config,
	}
}

// Create は呼び出し元ユーザーを所有者とする新規ノートを作成する。
func (s *Service) Create(ctx context.Context, userID, title, content string) (*model.Note, error) {
	if err := s.validate(title, content); err != nil {
		return nil, err
	}

	now := time.Now()
	note := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     s.sanitizer.SanitizeTitle(title),
		Content:   s.sanitizer.SanitizeContent(content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordNoteCreated()
	}

	return note, nil
}

// List は呼び出し元ユーザーが所有する全ノートを返す。
// 他ユーザーのノートが混ざることはない。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Note, error) {
	notes, err := s.noteRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Update はid AND 所有者が一致するノートのタイトル・本文を更新する。
// タイトル・本文は常に両方必須（部分更新はない）。
// 一致するノートが無い場合はNOTE_NOT_FOUNDエラーを返す。
// 「存在しない」と「他人の所有」は区別しない。
func (s *Service) Update(ctx context.Context, userID, noteID, title, content string) (*model.Note, error) {
	if err := s.validate(title, content); err != nil {
		return nil, err
	}

	note, err := s.noteRepo.Update(ctx, noteID, userID,
		s.sanitizer.SanitizeTitle(title),
		s.sanitizer.SanitizeContent(content),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if note == nil {
		return nil, model.NewNoteNotFoundError(noteID)
	}

	if s.metrics != nil {
		s.metrics.RecordNoteUpdated()
	}

	return note, nil
}

// Delete はid AND 所有者が一致するノートを削除する。
// 削除は即時かつ不可逆（ソフトデリートはない）。
// 一致するノートが無い場合はNOTE_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	deleted, err := s.noteRepo.Delete(ctx, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if !deleted {
		return model.NewNoteNotFoundError(noteID)
	}

	if s.metrics != nil {
		s.metrics.RecordNoteDeleted()
	}

	return nil
}

// validate は設定されたモードに従ってタイトル・本文を検証する。
// lenientモードでは何も検証しない（オリジナルの挙動）。
func (s *Service) validate(title, content string) error {
	if s.config.Validation != config.NoteValidationStrict {
		return nil
	}

	if strings.TrimSpace(title) == "" {
		return model.NewInvalidNoteError("タイトルが空です")
	}
	if strings.TrimSpace(content) == "" {
		return model.NewInvalidNoteError("本文が空です")
	}
	if s.config.TitleMaxLen > 0 && len([]rune(title)) > s.config.TitleMaxLen {
		return model.NewInvalidNoteError(fmt.Sprintf("タイトルが最大長（%d文字）を超えています", s.config.TitleMaxLen))
	}
	if s.config.ContentMaxLen > 0 && len([]rune(content)) > s.config.ContentMaxLen {
		return model.NewInvalidNoteError(fmt.Sprintf("本文が最大長（%d文字）を超えています", s.config.ContentMaxLen))
	}

	return nil
}
