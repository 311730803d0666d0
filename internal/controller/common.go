package controller

import (
	"quizsmith/internal/service"
	"quizsmith/internal/util"

	"github.com/gin-gonic/gin"
)

// callerFrom 从认证中间件写入的 claims 构造调用者身份
func callerFrom(ctx *gin.Context) (service.Caller, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return service.Caller{}, false
	}
	return service.Caller{UserID: claims.UserID, Role: claims.Role}, true
}

// bindJSON 绑定请求体，失败时返回字段级错误
func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		util.HandleError(ctx, util.BindingError(err))
		return false
	}
	return true
}
