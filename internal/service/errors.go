package service

import "errors"

// 业务错误，handler 通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotLoggedIn        = errors.New("please sign in to continue")
	ErrMovieNotFound      = errors.New("movie not found")
	ErrUnknownList        = errors.New("unknown movie list")
	ErrMessageEmpty       = errors.New("message cannot be empty")
	ErrMessageTooLong     = errors.New("message cannot exceed 500 characters")
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotAuthor          = errors.New("you can only delete your own messages")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidDate        = errors.New("invalid date of birth (expected YYYY-MM-DD)")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidFilter      = errors.New("invalid search filter")
	ErrNoFilters          = errors.New("at least one rating filter is required")
)
