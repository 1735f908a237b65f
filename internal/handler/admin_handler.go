package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	if !a.AuthEnabled() {
		c.Redirect(http.StatusFound, "/checkin")
		return
	}
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{"title": "Log in"})
}

// Login 校验仪表盘密码并建立会话
func (a *API) Login(c *gin.Context) {
	if !a.AuthEnabled() {
		c.Redirect(http.StatusFound, "/checkin")
		return
	}

	password := c.PostForm("password")
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		a.logger.Info("dashboard login rejected", zap.String("client_ip", c.ClientIP()))
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{"title": "Log in", "error": "Incorrect password"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionAuthKey, true)
	if err := session.Save(); err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{"title": "Log in", "error": "Failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, "/checkin")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	a.saveSession(c, session)
	c.Redirect(http.StatusFound, "/login")
}

// AuthRequired 在启用密码时拦截未登录请求；API 返回 401，页面跳转登录
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.AuthEnabled() {
			c.Next()
			return
		}
		session := sessions.Default(c)
		if ok, _ := session.Get(sessionAuthKey).(bool); ok {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}
