package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unfit20/unfit20/internal/auth"
	"github.com/unfit20/unfit20/internal/users"
)

func (r *Router) getProfile(c *gin.Context) {
	profile, err := r.users.GetProfile(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "profile unavailable")
		return
	}
	if profile == nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) updateProfile(c *gin.Context) {
	update := users.ProfileUpdate{
		Name: optionalForm(c, "name"),
		Bio:  optionalForm(c, "bio"),
	}

	image, closeImage, err := formImage(c, "avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closeImage()
	if image != nil {
		update.Avatar = &users.AvatarUpload{
			Reader:      image.Reader,
			Size:        image.Size,
			ContentType: image.ContentType,
		}
	}

	if !r.users.UpdateProfile(c.Request.Context(), auth.UserID(c), update) {
		respondError(c, http.StatusInternalServerError, "could not update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (r *Router) follow(c *gin.Context) {
	if !r.users.Follow(c.Request.Context(), auth.UserID(c), c.Param("id")) {
		respondError(c, http.StatusBadRequest, "could not follow user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

func (r *Router) unfollow(c *gin.Context) {
	if !r.users.Unfollow(c.Request.Context(), auth.UserID(c), c.Param("id")) {
		respondError(c, http.StatusBadRequest, "could not unfollow user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}
