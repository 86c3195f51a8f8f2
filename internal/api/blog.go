package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus/internal/auth"
	"campus/internal/blog"
	"campus/internal/httpmiddleware"
)

func (h *Handler) listCategories(c *gin.Context) {
	list, err := h.Posts.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	cat, err := h.Posts.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, cat)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.Posts.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (h *Handler) listPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	posts, err := h.Posts.Published(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, posts)
}

func (h *Handler) getPost(c *gin.Context) {
	p, err := h.Posts.PublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, p)
}

type postRequest struct {
	Title      string `json:"title" binding:"required"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"coverImage"`
	CategoryID string `json:"categoryId"`
	Published  bool   `json:"published"`
}

func (r postRequest) input() blog.PostInput {
	return blog.PostInput{
		Title:      r.Title,
		Slug:       r.Slug,
		Excerpt:    r.Excerpt,
		Content:    r.Content,
		CoverImage: r.CoverImage,
		CategoryID: r.CategoryID,
		Published:  r.Published,
	}
}

func (h *Handler) adminListPosts(c *gin.Context) {
	posts, err := h.Posts.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, posts)
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if !h.bind(c, &req) {
		return
	}
	claims, _ := auth.CurrentUser(c)
	p, err := h.Posts.Create(c.Request.Context(), req.input(), claims.Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, p)
}

func (h *Handler) updatePost(c *gin.Context) {
	var req postRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.Posts.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, p)
}

func (h *Handler) deletePost(c *gin.Context) {
	if err := h.Posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

// likeIdentity keys signed-in callers by user id and everyone else by client IP.
func likeIdentity(c *gin.Context) blog.Identity {
	if claims, ok := auth.CurrentUser(c); ok {
		return blog.Identity{UserID: claims.Subject}
	}
	return blog.Identity{IP: httpmiddleware.ClientIP(c.Request)}
}

func (h *Handler) likeStatus(c *gin.Context) {
	st, err := h.Likes.Status(c.Request.Context(), c.Param("slug"), likeIdentity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) toggleLike(c *gin.Context) {
	st, err := h.Likes.Toggle(c.Request.Context(), c.Param("slug"), likeIdentity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) listComments(c *gin.Context) {
	threads, err := h.Comments.Threads(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, threads)
}

type commentRequest struct {
	Content        string `json:"content" binding:"required"`
	ParentID       string `json:"parentId"`
	AnonymousName  string `json:"anonymousName"`
	AnonymousEmail string `json:"anonymousEmail"`
}

func (h *Handler) createComment(c *gin.Context) {
	var req commentRequest
	if !h.bind(c, &req) {
		return
	}
	in := blog.NewComment{
		Content:        req.Content,
		ParentID:       req.ParentID,
		AnonymousName:  req.AnonymousName,
		AnonymousEmail: req.AnonymousEmail,
	}
	if claims, ok := auth.CurrentUser(c); ok {
		in.AuthorID = claims.Subject
	}
	cm, err := h.Comments.Create(c.Request.Context(), c.Param("slug"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": cm, "message": "Comment submitted and awaiting moderation"})
}

func (h *Handler) adminListComments(c *gin.Context) {
	list, err := h.Comments.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) moderateComment(c *gin.Context) {
	var req struct {
		Approved *bool `json:"approved" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	cm, err := h.Comments.SetApproved(c.Request.Context(), c.Param("id"), *req.Approved)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, cm)
}

func (h *Handler) deleteComment(c *gin.Context) {
	if err := h.Comments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"id": c.Param("id")})
}
