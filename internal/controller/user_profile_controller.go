package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserProfileController 处理用户资料相关的HTTP请求
type UserProfileController struct {
	UserProfileService *service.UserProfileService
}

func NewUserProfileController(userProfileService *service.UserProfileService) *UserProfileController {
	return &UserProfileController{UserProfileService: userProfileService}
}

// CreateProfile godoc
// @Summary 创建用户资料
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body service.CreateProfileRequest true "用户资料"
// @Success 201 {object} model.UserProfile
// @Failure 400 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse "邮箱已注册"
// @Router /api/users [post]
func (c *UserProfileController) CreateProfile(ctx *gin.Context) {
	var req service.CreateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.UserProfileService.Create(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, profile)
}

// GetProfile godoc
// @Summary 按邮箱获取用户资料
// @Tags 用户
// @Produce json
// @Param email path string true "邮箱"
// @Success 200 {object} model.UserProfile
// @Failure 404 {object} util.ErrorResponse
// @Router /api/users/{email} [get]
func (c *UserProfileController) GetProfile(ctx *gin.Context) {
	profile, err := c.UserProfileService.FetchByEmail(ctx.Request.Context(), ctx.Param("email"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UpdateProfile godoc
// @Summary 更新用户资料
// @Description 只更新请求中出现的字段，邮箱不可修改
// @Tags 用户
// @Accept json
// @Produce json
// @Param id path string true "用户ID"
// @Param request body service.UpdateProfileRequest true "需要更新的字段"
// @Success 200 {object} model.UserProfile
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/users/{id} [put]
func (c *UserProfileController) UpdateProfile(ctx *gin.Context) {
	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.UserProfileService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// DeleteProfile godoc
// @Summary 删除用户资料
// @Description 不删除该用户的会话
// @Tags 用户
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} util.MessageResponse
// @Router /api/users/{id} [delete]
func (c *UserProfileController) DeleteProfile(ctx *gin.Context) {
	if err := c.UserProfileService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Message(ctx, "User deleted successfully")
}
