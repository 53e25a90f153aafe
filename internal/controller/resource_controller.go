package controller

import (
	"errors"

	"journey_backend/internal/service"
	"journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
}

func NewResourceController(resourceService *service.ResourceService) *ResourceController {
	return &ResourceController{ResourceService: resourceService}
}

// GetResource godoc
// @Summary 获取资源详情
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "资源ID"
// @Success 200 {object} util.Response{data=model.Resource} "成功"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	resource, err := c.ResourceService.GetResource(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resource)
}

// BackfillContent godoc
// @Summary 回填资源正文
// @Description 对正文缺失的资源重新抓取并更新摘要与阅读时长
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "资源ID"
// @Success 200 {object} util.Response{data=model.Resource} "成功"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/admin/resources/{id}/backfill [post]
func (c *ResourceController) BackfillContent(ctx *gin.Context) {
	resource, err := c.ResourceService.BackfillContent(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resource)
}

// GetRawHTML godoc
// @Summary 获取资源抓取原文
// @Description 管理端排查正文解析问题时查看原始 HTML
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "原文不存在"
// @Router /api/admin/resources/{id}/raw [get]
func (c *ResourceController) GetRawHTML(ctx *gin.Context) {
	html, err := c.ResourceService.GetRawHTML(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
			return
		}
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"html": html})
}
