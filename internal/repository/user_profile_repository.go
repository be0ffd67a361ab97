package repository

import (
	"context"
	"errors"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"

	"gorm.io/gorm"
)

type UserProfileRepository struct {
	DB *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) *UserProfileRepository {
	return &UserProfileRepository{DB: db}
}

func translateProfileError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return util.ErrEmailRegistered
	}
	return err
}

func (r *UserProfileRepository) Create(ctx context.Context, profile *model.UserProfile) error {
	return translateProfileError(r.DB.WithContext(ctx).Create(profile).Error)
}

func (r *UserProfileRepository) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translateProfileError(err)
	}
	return &profile, nil
}

func (r *UserProfileRepository) FindByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, translateProfileError(err)
	}
	return &profile, nil
}

func (r *UserProfileRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserProfile{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Update 只更新已存在的记录，记录已被删除时返回 ErrUserNotFound
func (r *UserProfileRepository) Update(ctx context.Context, profile *model.UserProfile) error {
	res := r.DB.WithContext(ctx).Model(profile).Select("*").Omit("id", "created_at").Updates(profile)
	if res.Error != nil {
		return translateProfileError(res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

// Delete 物理删除，不级联删除会话
func (r *UserProfileRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.UserProfile{}).Error
}
