package api

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unfit20/unfit20/internal/auth"
	"github.com/unfit20/unfit20/internal/feed"
)

// maxImageSize caps uploaded post and avatar images at 10 MiB
const maxImageSize = 10 << 20

type commentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

func (r *Router) getFeed(c *gin.Context) {
	posts, err := r.feed.FetchFeed(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "feed unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (r *Router) getFeedPage(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size > 50 {
		size = 50
	}

	posts := r.feed.FetchFeedPage(c.Request.Context(), auth.UserID(c), page, size)
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page, "size": size})
}

func (r *Router) getPost(c *gin.Context) {
	post, err := r.feed.FetchPost(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "post unavailable")
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) getUserFeed(c *gin.Context) {
	posts := r.feed.FetchUserFeed(c.Request.Context(), auth.UserID(c), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (r *Router) getLikedPosts(c *gin.Context) {
	posts := r.feed.FetchLikedPosts(c.Request.Context(), auth.UserID(c))
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (r *Router) createPost(c *gin.Context) {
	content := c.PostForm("content")
	if content == "" {
		respondError(c, http.StatusBadRequest, "content is required")
		return
	}
	location := optionalForm(c, "location")

	image, closeImage, err := formImage(c, "image")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closeImage()

	if !r.feed.CreatePost(c.Request.Context(), auth.UserID(c), content, image, location) {
		respondError(c, http.StatusInternalServerError, "could not create post")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (r *Router) updatePost(c *gin.Context) {
	content := c.PostForm("content")
	if content == "" {
		respondError(c, http.StatusBadRequest, "content is required")
		return
	}
	location := optionalForm(c, "location")

	image, closeImage, err := formImage(c, "image")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closeImage()

	if !r.feed.UpdatePost(c.Request.Context(), auth.UserID(c), c.Param("id"), content, image, location) {
		respondError(c, http.StatusForbidden, "could not update post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (r *Router) deletePost(c *gin.Context) {
	if !r.feed.DeletePost(c.Request.Context(), auth.UserID(c), c.Param("id")) {
		respondError(c, http.StatusForbidden, "could not delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (r *Router) likePost(c *gin.Context) {
	if !r.feed.LikePost(c.Request.Context(), auth.UserID(c), c.Param("id")) {
		respondError(c, http.StatusInternalServerError, "could not like post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}

func (r *Router) unlikePost(c *gin.Context) {
	if !r.feed.UnlikePost(c.Request.Context(), auth.UserID(c), c.Param("id")) {
		respondError(c, http.StatusInternalServerError, "could not unlike post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unliked"})
}

func (r *Router) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if !r.feed.AddComment(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Content) {
		respondError(c, http.StatusInternalServerError, "could not add comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "commented"})
}

// optionalForm returns a form value as a nullable string
func optionalForm(c *gin.Context, field string) *string {
	if value, ok := c.GetPostForm(field); ok && value != "" {
		return &value
	}
	return nil
}

// formImage opens an optional multipart image field. The returned close
// function is a no-op when no file was sent.
func formImage(c *gin.Context, field string) (*feed.ImageUpload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if header.Size > maxImageSize {
		return nil, func() {}, NewError(http.StatusBadRequest, "image too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &feed.ImageUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: imageContentType(header),
	}, func() { file.Close() }, nil
}

func imageContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
