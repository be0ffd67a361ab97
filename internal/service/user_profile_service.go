package service

import (
	"context"
	"fmt"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"strings"

	"gorm.io/datatypes"
)

// CreateProfileRequest 创建用户资料请求
// swagger:model CreateProfileRequest
type CreateProfileRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	TargetRole string   `json:"targetRole"`
	Experience string   `json:"experience"`
	Skills     []string `json:"skills"`
}

// UpdateProfileRequest 只合并请求中出现的字段
// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Name       *string   `json:"name"`
	Email      *string   `json:"email"`
	TargetRole *string   `json:"targetRole"`
	Experience *string   `json:"experience"`
	Skills     *[]string `json:"skills"`
}

// UserProfileService 处理用户资料相关的业务逻辑
type UserProfileService struct {
	Profiles *repository.UserProfileRepository
}

func NewUserProfileService(profiles *repository.UserProfileRepository) *UserProfileService {
	return &UserProfileService{Profiles: profiles}
}

func skillsOf(skills []string) datatypes.JSONSlice[string] {
	if skills == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](skills)
}

// Create 邮箱唯一性由数据库唯一索引保证
func (s *UserProfileService) Create(ctx context.Context, req CreateProfileRequest) (*model.UserProfile, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		return nil, util.Required("name")
	}
	if email == "" {
		return nil, util.Required("email")
	}

	profile := &model.UserProfile{
		Name:       name,
		Email:      email,
		TargetRole: req.TargetRole,
		Experience: req.Experience,
		Skills:     skillsOf(req.Skills),
	}
	if err := s.Profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *UserProfileService) FetchByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	return s.Profiles.FindByEmail(ctx, strings.TrimSpace(email))
}

func (s *UserProfileService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	return s.Profiles.FindByID(ctx, id)
}

// Update 浅合并；邮箱创建后不可修改
func (s *UserProfileService) Update(ctx context.Context, id string, req UpdateProfileRequest) (*model.UserProfile, error) {
	profile, err := s.Profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) != profile.Email {
		return nil, util.ErrEmailImmutable
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, util.Required("name")
		}
		profile.Name = name
	}
	if req.TargetRole != nil {
		profile.TargetRole = *req.TargetRole
	}
	if req.Experience != nil {
		profile.Experience = *req.Experience
	}
	if req.Skills != nil {
		profile.Skills = skillsOf(*req.Skills)
	}

	if err := s.Profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}
	return profile, nil
}

// Delete 不存在时不报错，也不删除该用户的会话
func (s *UserProfileService) Delete(ctx context.Context, id string) error {
	return s.Profiles.Delete(ctx, id)
}
