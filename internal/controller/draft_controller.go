package controller

import (
	"encoding/json"

	"quizsmith/internal/service"
	"quizsmith/internal/util"

	"github.com/gin-gonic/gin"
)

type DraftController struct {
	DraftService *service.DraftService
}

func NewDraftController(draftService *service.DraftService) *DraftController {
	return &DraftController{DraftService: draftService}
}

// SaveDraftRequest 草稿快照，整体覆盖上一次的快照
type SaveDraftRequest struct {
	Data json.RawMessage `json:"data" binding:"required" swaggertype:"object"`
}

// GetDraft godoc
// @Summary 读取草稿
// @Tags 草稿
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "草稿key，例如 test:{id} 或 new-test"
// @Success 200 {object} util.Response{data=service.Draft}
// @Failure 404 {object} util.Response "没有草稿"
// @Router /drafts/{key} [get]
func (c *DraftController) GetDraft(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	draft, err := c.DraftService.Get(ctx.Request.Context(), caller, ctx.Param("key"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// SaveDraft godoc
// @Summary 保存草稿
// @Description 快照在静默期后写入，期间的新快照会替换旧快照
// @Tags 草稿
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "草稿key"
// @Param body body SaveDraftRequest true "草稿内容"
// @Success 202 {object} util.Response{data=service.Draft}
// @Failure 400 {object} util.Response "内容不合法"
// @Router /drafts/{key} [put]
func (c *DraftController) SaveDraft(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var req SaveDraftRequest
	if !bindJSON(ctx, &req) {
		return
	}

	draft, err := c.DraftService.Save(caller, ctx.Param("key"), req.Data)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.JSON(202, util.Response{Code: 202, Message: "accepted", Data: draft})
}

// DeleteDraft godoc
// @Summary 删除草稿
// @Description scope=pending 只丢弃尚未写入的快照（离开编辑器），默认同时删除已保存的草稿
// @Tags 草稿
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "草稿key"
// @Param scope query string false "pending 或 all" default(all)
// @Success 200 {object} util.Response
// @Router /drafts/{key} [delete]
func (c *DraftController) DeleteDraft(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	key := ctx.Param("key")
	switch ctx.DefaultQuery("scope", "all") {
	case "pending":
		dropped := c.DraftService.Cancel(caller, key)
		util.Success(ctx, gin.H{"dropped": dropped})
	case "all":
		if err := c.DraftService.Discard(ctx.Request.Context(), caller, key); err != nil {
			util.HandleError(ctx, err)
			return
		}
		util.Success(ctx, nil)
	default:
		util.ValidationFailed(ctx, map[string]string{"scope": "must be one of: pending all"})
	}
}
