package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/dreadscale/internal/middleware"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/service"
	"github.com/user/dreadscale/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type themeRequest struct {
	Theme string `json:"theme" form:"theme" binding:"required,oneof=light dark"`
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, bindingMessage(err, "Please fill in all required fields with valid values"))
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.signIn(c, user)
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, bindingMessage(err, "Please enter your email and password"))
		return
	}

	user, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.signIn(c, user)
}

// signIn 生成 JWT，写入 Cookie 和 Session 快照
func (h *Handler) signIn(c *gin.Context, user *model.User) {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		utils.InternalServerError(c, "Sign in failed, please try again")
		return
	}

	// 设置 Cookie (JWT)
	c.SetCookie(middleware.TokenCookie, token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set(sessionUserKey, model.NewSessionUser(user))
	session.Save()

	utils.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)

	// 清理用户信息，保留主题偏好
	session := sessions.Default(c)
	session.Delete(sessionUserKey)
	session.Save()

	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/")
		return
	}
	utils.Success(c, nil)
}

// Me 当前用户及统计
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.Auth.Me(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"user":            user,
		"movies_rated":    h.Ratings.GetMoviesRatedCount(userID),
		"watchlist_count": h.Watchlist.Count(userID),
	})
}

// UpdateProfile 修改个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, bindingMessage(err, "Invalid profile data"))
		return
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	// 更新 Session 中的用户快照
	session := sessions.Default(c)
	session.Set(sessionUserKey, model.NewSessionUser(user))
	session.Save()

	utils.Success(c, user)
}

// SetTheme 保存主题偏好（light / dark）
func (h *Handler) SetTheme(c *gin.Context) {
	var in themeRequest
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, bindingMessage(err, "Theme must be light or dark"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionThemeKey, in.Theme)
	session.Save()

	utils.Success(c, gin.H{"theme": in.Theme})
}
