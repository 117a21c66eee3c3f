package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code   int                 `json:"code"`             // 业务码
	Msg    string              `json:"msg"`              // 提示信息
	Data   interface{}         `json:"data,omitempty"`   // 数据
	Errors map[string][]string `json:"errors,omitempty"` // 字段级校验错误
}

// Success 成功响应 (Code=200)
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: http.StatusOK,
		Msg:  "success",
		Data: data,
	})
}

// Message 成功响应并附带提示信息
func Message(ctx *gin.Context, msg string, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: http.StatusOK,
		Msg:  msg,
		Data: data,
	})
}

// Created 创建成功 (Code=201)
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: http.StatusCreated,
		Msg:  "created",
		Data: data,
	})
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.AbortWithStatusJSON(httpStatus, Response{
		Code: httpStatus, // 这里简单将 HTTP 状态码作为业务码
		Msg:  msg,
	})
}

// Validation 字段校验失败 (400)
func Validation(ctx *gin.Context, fields map[string][]string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Code:   http.StatusBadRequest,
		Msg:    "validation failed",
		Errors: fields,
	})
}
