package handler

import (
	"math"
	"net/http"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getRating(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rating, err := h.social.GetRating(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (h *Handler) rateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ratingRequest
	// 3.0 принимается как 3; дробное или строковое значение - та же ошибка, что и вне диапазона
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating == nil || *req.Rating != math.Trunc(*req.Rating) {
		handleServiceError(c, models.ErrInvalidRating)
		return
	}
	rating, err := h.social.Rate(c.Request.Context(), id, currentUserID(c), int(*req.Rating))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (h *Handler) listComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.social.ListComments(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) createComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.social.CreateComment(c.Request.Context(), id, currentUserID(c), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.social.UpdateComment(c.Request.Context(), bookID, commentID, currentUserID(c), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	if err := h.social.DeleteComment(c.Request.Context(), bookID, commentID, currentUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) likeResponse(c *gin.Context, status *models.LikeStatus, err error) {
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if status.Book != nil {
		absoluteBook(c, status.Book.Book)
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) getLike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.social.LikeStatus(c.Request.Context(), id, currentUserID(c))
	h.likeResponse(c, status, err)
}

func (h *Handler) toggleLike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.social.ToggleLike(c.Request.Context(), id, currentUserID(c))
	h.likeResponse(c, status, err)
}
