package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/auth"
)

type signUpRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r *Router) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := r.auth.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "email already registered")
			return
		}
		r.logger.Error("Sign-up failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "sign-up failed")
		return
	}

	token, err := r.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		r.logger.Error("Post-signup sign-in failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "sign-up failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "token": token})
}

func (r *Router) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := r.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		r.logger.Error("Sign-in failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "sign-in failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (r *Router) signOut(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")

	if err := r.auth.SignOut(c.Request.Context(), token); err != nil {
		r.logger.Warn("Sign-out failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "sign-out failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}
