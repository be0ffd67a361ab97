package repository

import (
	"context"
	"errors"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if session.Version == 0 {
		session.Version = 1
	}
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByUserID 按创建时间倒序返回用户的全部会话
func (r *SessionRepository) FindByUserID(ctx context.Context, userID string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// FindScoredWithoutTranscript 已打分但尚未归档的会话
func (r *SessionRepository) FindScoredWithoutTranscript(ctx context.Context) ([]model.Session, error) {
	sessions := []model.Session{}
	err := r.DB.WithContext(ctx).
		Where("status = ? AND (transcript_url IS NULL OR transcript_url = '')", model.SessionScored).
		Order("created_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// Update 以乐观锁方式保存会话，session.Version 必须是读取时的版本，成功后自增
func (r *SessionRepository) Update(ctx context.Context, session *model.Session) error {
	prev := session.Version
	res := r.DB.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND version = ?", session.ID, prev).
		Updates(map[string]interface{}{
			"questions":      session.Questions,
			"score":          session.Score,
			"status":         session.Status,
			"transcript_url": session.TranscriptURL,
			"version":        prev + 1,
			"updated_at":     session.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrConflict
	}
	session.Version = prev + 1
	return nil
}

// Delete 物理删除，记录不存在时不报错
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Session{}).Error
}
