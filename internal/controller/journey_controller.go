package controller

import (
	"errors"
	"strconv"

	"journey_backend/internal/model"
	"journey_backend/internal/service"
	"journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type JourneyController struct {
	JourneyService *service.JourneyService
}

func NewJourneyController(journeyService *service.JourneyService) *JourneyController {
	return &JourneyController{JourneyService: journeyService}
}

// swagger:model CreateJourneyRequest
type CreateJourneyRequest struct {
	Topic           string `json:"topic" binding:"required"`
	Level           string `json:"level"`
	Goal            string `json:"goal"`
	PreferredFormat string `json:"preferredFormat"`
	TimeCommitment  string `json:"timeCommitment"`
}

// CreateJourney godoc
// @Summary 创建学习旅程
// @Description 校验意图后创建旅程并启动后台采集，立即返回 pending 状态
// @Tags 旅程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateJourneyRequest true "学习意图"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "主题为空或为占位词"
// @Failure 402 {object} util.Response "免费额度已用完"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/journeys [post]
func (c *JourneyController) CreateJourney(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateJourneyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	intent := model.Intent{
		Topic:           req.Topic,
		Level:           req.Level,
		Goal:            req.Goal,
		PreferredFormat: req.PreferredFormat,
		TimeCommitment:  req.TimeCommitment,
	}

	journey, defaulted, err := c.JourneyService.CreateJourney(claims.UserID, intent)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidTopic):
			util.BadRequest(ctx, "topic is empty or a placeholder")
		case errors.Is(err, util.ErrJourneyQuotaUsed):
			util.Error(ctx, 402, "free journey quota exhausted")
		case errors.Is(err, util.ErrUserNotFound):
			util.Unauthorized(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"journey":         journey,
		"defaultedFields": defaulted,
	})
}

// GetJourney godoc
// @Summary 获取旅程详情
// @Description 返回旅程状态、按序资源列表和分组
// @Tags 旅程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "旅程ID"
// @Success 200 {object} util.Response{data=service.JourneyDetail} "成功"
// @Failure 403 {object} util.Response "无权访问"
// @Failure 404 {object} util.Response "旅程不存在"
// @Router /api/journeys/{id} [get]
func (c *JourneyController) GetJourney(ctx *gin.Context) {
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

	detail, err := c.JourneyService.GetJourney(ctx.Request.Context(), journeyID, claims.UserID, claims.IsAdmin)
	if err != nil {
		respondJourneyError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// ListJourneys godoc
// @Summary 获取当前用户的旅程列表
// @Tags 旅程
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "返回条数上限，默认50"
// @Success 200 {object} util.Response{data=[]model.Journey} "成功"
// @Router /api/journeys [get]
func (c *JourneyController) ListJourneys(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	journeys, err := c.JourneyService.GetUserJourneys(claims.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, journeys)
}

// RetryJourney godoc
// @Summary 重跑失败的旅程
// @Description 终态旅程重新进入 pending 并拉起后台处理
// @Tags 旅程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "旅程ID"
// @Success 200 {object} util.Response{data=model.Journey} "成功"
// @Failure 409 {object} util.Response "旅程正在处理中"
// @Router /api/journeys/{id}/retry [post]
func (c *JourneyController) RetryJourney(ctx *gin.Context) {
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

	journey, err := c.JourneyService.RetryJourney(journeyID, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrJourneyInProgress) {
			util.Error(ctx, 409, "journey is already being processed")
			return
		}
		respondJourneyError(ctx, err)
		return
	}
	util.Success(ctx, journey)
}

func respondJourneyError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrJourneyNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}
