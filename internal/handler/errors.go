package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/dreadscale/internal/service"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/utils"
)

// respondError 把业务错误映射为 HTTP 状态码，未知错误记录日志并返回 500
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, service.ErrInvalidCredentials):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrNotAuthor):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrMovieNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		utils.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownList),
		errors.Is(err, service.ErrMessageEmpty),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrNoFilters),
		errors.Is(err, taxonomy.ErrUnknownCategory),
		errors.Is(err, taxonomy.ErrRatingRange):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.Error(c, http.StatusServiceUnavailable, "Request was cancelled")
	default:
		log.Printf("[Handler] %s %s 失败: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.InternalServerError(c, "")
	}
}

// bindingMessage 把参数校验错误转成可读提示，其他错误返回 fallback
func bindingMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fallback
}
