package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrTargetUserInvalid = errors.New("目标用户无效")
	ErrConversation      = errors.New("会话异常")
	ErrFetchFailed       = errors.New("加载失败")
	ErrSendFailed        = errors.New("消息发送失败")
	ErrCreateChatFailed  = errors.New("创建会话失败")
	ErrSessionClosed     = errors.New("会话已关闭")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrUserNotFound:      NotFound,
	ErrTargetUserInvalid: BadRequest,
	ErrConversation:      BadRequest,
	ErrFetchFailed:       ServiceUnavailable,
	ErrSendFailed:        ServiceUnavailable,
	ErrCreateChatFailed:  ServiceUnavailable,
	ErrSessionClosed:     Conflict,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}

// CodeOf 沿包装链查找业务错误码
func CodeOf(err error) (int, bool) {
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}
