package response

import (
	"Parley/internal/api/dto"
	"Parley/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	InternalServerError = 500
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	code, message := Resolve(err)
	Fail(c, code, message)
}

// Resolve 错误 -> 业务码与提示
func Resolve(err error) (int, string) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return BadRequest, "参数错误"
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		return BadRequest, "Json错误"
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return BadRequest, "Json错误"
	}

	code, ok := service.CodeOf(err)
	if !ok {
		log.Error("Error", "err", err)
		return InternalServerError, service.UnExpectedError.Error()
	}
	return code, err.Error()
}

// Ack WebSocket 意图处理成功
func Ack(requestID string, data interface{}) dto.ServerFrame {
	return dto.ServerFrame{
		Type:      dto.FrameAck,
		RequestID: requestID,
		Code:      Ok,
		Data:      data,
	}
}

// ErrorFrame WebSocket 意图处理失败
func ErrorFrame(requestID string, err error) dto.ServerFrame {
	code, message := Resolve(err)
	return dto.ServerFrame{
		Type:      dto.FrameError,
		RequestID: requestID,
		Code:      code,
		Message:   message,
	}
}
