// internal/api/error_codes.go
package api

import (
	"errors"

	"github.com/Corphon/SeriesMoodRecap/internal/session"
)

// API错误代码常量
const (
	// 通用错误
	ErrorValidation        = "VALIDATION_ERROR"
	ErrorInternalError     = "INTERNAL_ERROR"
	ErrorRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// 会话
	ErrorSessionNotFound = "SESSION_NOT_FOUND"
	ErrorSuperseded      = "SUPERSEDED"

	// 搜索与详情
	ErrorEmptyQuery   = "EMPTY_QUERY"
	ErrorSearchFailed = "SEARCH_FAILED"
	ErrorDetailFailed = "DETAIL_FAILED"

	// 生成
	ErrorRecapNoContent = "RECAP_NO_CONTENT"
	ErrorRecapTransport = "RECAP_TRANSPORT"
)

func isSuperseded(err error) bool {
	return errors.Is(err, session.ErrSuperseded)
}
