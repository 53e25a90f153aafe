package controller

import (
	"errors"

	"journey_backend/internal/model"
	"journey_backend/internal/service"
	"journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// swagger:model ProgressUpdateRequest
type ProgressUpdateRequest struct {
	ResourceID string `json:"resourceId" binding:"required"`
	// completed/in_progress/incomplete
	Action           string `json:"action" binding:"required,oneof=completed in_progress incomplete"`
	TimeSpentMinutes int    `json:"timeSpentMinutes"`
}

// UpdateProgress godoc
// @Summary 更新资源学习进度
// @Description 标记完成/进行中/取消完成，可同时累加学习时长
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "旅程ID"
// @Param   body body ProgressUpdateRequest true "进度变更"
// @Success 200 {object} util.Response{data=model.JourneyProgress} "成功"
// @Failure 403 {object} util.Response "无权访问"
// @Failure 404 {object} util.Response "旅程不存在"
// @Router /api/journeys/{id}/progress [post]
func (c *ProgressController) UpdateProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	journeyID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid journey id")
		return
	}

	var req ProgressUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var progress *model.JourneyProgress
	switch req.Action {
	case "completed":
		progress, err = c.ProgressService.MarkCompleted(journeyID, claims.UserID, req.ResourceID)
	case "in_progress":
		progress, err = c.ProgressService.MarkInProgress(journeyID, claims.UserID, req.ResourceID)
	case "incomplete":
		progress, err = c.ProgressService.MarkIncomplete(journeyID, claims.UserID, req.ResourceID)
	}
	if err != nil {
		respondProgressError(ctx, err)
		return
	}

	if req.TimeSpentMinutes > 0 {
		progress, err = c.ProgressService.AddTimeSpent(journeyID, claims.UserID, req.ResourceID, req.TimeSpentMinutes)
		if err != nil {
			respondProgressError(ctx, err)
			return
		}
	}

	util.Success(ctx, progress)
}

// GetProgress godoc
// @Summary 获取旅程进度汇总
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "旅程ID"
// @Success 200 {object} util.Response{data=service.ProgressSummary} "成功"
// @Failure 403 {object} util.Response "无权访问"
// @Failure 404 {object} util.Response "旅程不存在"
// @Router /api/journeys/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	journeyID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid journey id")
		return
	}

	summary, err := c.ProgressService.GetSummary(journeyID, claims.UserID)
	if err != nil {
		respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

func respondProgressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrJourneyNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
