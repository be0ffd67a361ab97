package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TopicController struct {
	TopicService *service.TopicService
}

func NewTopicController(topicService *service.TopicService) *TopicController {
	return &TopicController{TopicService: topicService}
}

// ListTopics godoc
// @Summary 可选的面试方向与难度
// @Tags 出题
// @Produce json
// @Success 200 {object} service.TopicCatalog
// @Router /api/topics [get]
func (c *TopicController) ListTopics(ctx *gin.Context) {
	util.Success(ctx, c.TopicService.Catalog())
}
