package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 独立的出题接口，不关联会话
type QuestionController struct {
	SessionService *service.SessionService
}

func NewQuestionController(sessionService *service.SessionService) *QuestionController {
	return &QuestionController{SessionService: sessionService}
}

// GenerateQuestionRequest 出题请求
// swagger:model GenerateQuestionRequest
type GenerateQuestionRequest struct {
	Topic             string   `json:"topic"`
	Difficulty        string   `json:"difficulty"`
	PreviousQuestions []string `json:"previousQuestions"`
}

// GenerateQuestion godoc
// @Summary 生成面试题
// @Description 生成失败时返回固定题目
// @Tags 出题
// @Accept json
// @Produce json
// @Param request body GenerateQuestionRequest true "方向与难度"
// @Success 200 {object} QuestionResponse
// @Failure 400 {object} util.ErrorResponse
// @Router /api/generate-question [post]
func (c *QuestionController) GenerateQuestion(ctx *gin.Context) {
	var req GenerateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.SessionService.NextQuestion(ctx.Request.Context(), req.Topic, req.Difficulty, req.PreviousQuestions)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, QuestionResponse{Question: question})
}
