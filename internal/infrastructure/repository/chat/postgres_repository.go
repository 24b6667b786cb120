// Package chat persists sessions, messages, and participants. It is the
// durability collaborator behind the in-memory store and the scan source
// for analytics.
package chat

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/infrastructure/database/entities"
	"licitahub/services/support-chat/internal/utils/platformerrors"
)

// Repository persists chat state in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a chat repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveSession inserts the session record.
func (r *Repository) SaveSession(ctx context.Context, sess *domain.Session) error {
	entity := entities.NewChatSession(sess)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to persist session",
			err,
		)
	}
	return nil
}

// UpdateSession writes the current session state over the stored row.
func (r *Repository) UpdateSession(ctx context.Context, sess *domain.Session) error {
	entity := entities.NewChatSession(sess)
	if err := r.db.WithContext(ctx).
		Model(&entities.ChatSession{}).
		Where("id = ?", sess.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(entity).Error; err != nil {
		return platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to update session",
			err,
		)
	}
	return nil
}

// SaveMessage appends one immutable message row.
func (r *Repository) SaveMessage(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewChatMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to persist message",
			err,
		)
	}
	return nil
}

// SaveParticipant upserts a participant's membership row.
func (r *Repository) SaveParticipant(ctx context.Context, p *domain.Participant) error {
	entity := entities.NewChatParticipant(p)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"online", "left_at", "role"}),
		}).
		Create(entity).Error; err != nil {
		return platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to persist participant",
			err,
		)
	}
	return nil
}

// SessionMessages returns a session's messages in conversation order.
func (r *Repository) SessionMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	var rows []entities.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			fmt.Sprintf("failed to load messages for %s", sessionID),
			err,
		)
	}

	out := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// OpenSessions returns every non-closed session for startup rehydration.
func (r *Repository) OpenSessions(ctx context.Context) ([]*domain.Session, error) {
	var rows []entities.ChatSession
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_message.created_at ASC")
		}).
		Preload("Participants").
		Where("status <> ?", string(domain.StatusClosed)).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to load open sessions",
			err,
		)
	}

	out := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// SessionsInRange returns sessions created inside the window, messages
// included, for the analytics aggregator.
func (r *Repository) SessionsInRange(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	var rows []entities.ChatSession
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_message.created_at ASC")
		}).
		Where("created_at BETWEEN ? AND ?", from, to).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.New(
			platformerrors.LayerRepository,
			platformerrors.ErrorTypePersistence,
			"failed to scan sessions",
			err,
		)
	}

	out := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}
