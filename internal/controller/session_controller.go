package controller

import (
	"errors"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"
	"io"

	"github.com/gin-gonic/gin"
)

// SessionController 面试会话相关接口
type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// SubmitAnswerRequest 提交作答
// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	// Version 可选，携带时必须等于会话当前版本
	Version *int `json:"version"`
}

// ScoreRequest 结束会话；不传 score 时由服务端按作答题数计分
// swagger:model ScoreRequest
type ScoreRequest struct {
	Score   *int `json:"score"`
	Version *int `json:"version"`
}

// QuestionResponse 生成的题目
// swagger:model QuestionResponse
type QuestionResponse struct {
	Question string `json:"question"`
}

// bindOptionalJSON 允许空请求体
func bindOptionalJSON(ctx *gin.Context, obj interface{}) error {
	if err := ctx.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreateSession godoc
// @Summary 创建面试会话
// @Tags 面试会话
// @Accept json
// @Produce json
// @Param request body service.CreateSessionRequest true "会话信息"
// @Success 201 {object} model.Session
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse "开启用户校验且用户不存在"
// @Failure 500 {object} util.ErrorResponse
// @Router /api/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req service.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Create(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary 获取用户的全部会话
// @Description 按创建时间倒序返回
// @Tags 面试会话
// @Produce json
// @Param userId path string true "用户ID"
// @Success 200 {array} model.Session
// @Failure 500 {object} util.ErrorResponse
// @Router /api/sessions/{userId} [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	sessions, err := c.SessionService.List(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}

// GetStats godoc
// @Summary 获取用户会话统计
// @Tags 面试会话
// @Produce json
// @Param userId path string true "用户ID"
// @Success 200 {object} service.SessionStats
// @Failure 500 {object} util.ErrorResponse
// @Router /api/sessions/{userId}/stats [get]
func (c *SessionController) GetStats(ctx *gin.Context) {
	stats, err := c.SessionService.Stats(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// GetSession godoc
// @Summary 获取会话详情
// @Tags 面试会话
// @Produce json
// @Param sessionId path string true "会话ID"
// @Success 200 {object} model.Session
// @Failure 404 {object} util.ErrorResponse
// @Router /api/sessions/detail/{sessionId} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	session, err := c.SessionService.Get(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// NextQuestion godoc
// @Summary 为会话生成下一道题
// @Description 以会话已有题目作为去重参考，不修改会话
// @Tags 面试会话
// @Produce json
// @Param sessionId path string true "会话ID"
// @Success 200 {object} QuestionResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/sessions/{sessionId}/next-question [post]
func (c *SessionController) NextQuestion(ctx *gin.Context) {
	question, err := c.SessionService.NextQuestionForSession(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, QuestionResponse{Question: question})
}

// SubmitAnswer godoc
// @Summary 提交作答
// @Description 生成反馈并追加到会话的问答记录中
// @Tags 面试会话
// @Accept json
// @Produce json
// @Param sessionId path string true "会话ID"
// @Param request body SubmitAnswerRequest true "题目与作答"
// @Success 200 {object} model.Session
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse "版本冲突或会话已结束"
// @Router /api/sessions/{sessionId}/question [put]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.SubmitAnswer(ctx.Request.Context(), ctx.Param("sessionId"), req.Question, req.Answer, req.Version)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// UpdateScore godoc
// @Summary 结束会话并记录分数
// @Tags 面试会话
// @Accept json
// @Produce json
// @Param sessionId path string true "会话ID"
// @Param request body ScoreRequest false "分数，可省略"
// @Success 200 {object} model.Session
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 409 {object} util.ErrorResponse
// @Router /api/sessions/{sessionId}/score [put]
func (c *SessionController) UpdateScore(ctx *gin.Context) {
	var req ScoreRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := ctx.Param("sessionId")
	var (
		session *model.Session
		err     error
	)
	if req.Score != nil {
		session, err = c.SessionService.RecordScore(ctx.Request.Context(), id, *req.Score, req.Version)
	} else {
		session, err = c.SessionService.EndSession(ctx.Request.Context(), id, req.Version)
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// DeleteSession godoc
// @Summary 删除会话
// @Description 会话不存在时同样返回成功
// @Tags 面试会话
// @Produce json
// @Param sessionId path string true "会话ID"
// @Success 200 {object} util.MessageResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /api/sessions/{sessionId} [delete]
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	if err := c.SessionService.Delete(ctx.Request.Context(), ctx.Param("sessionId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Message(ctx, "Session deleted successfully")
}
