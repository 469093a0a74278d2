package handler

import (
	"net/http"
	"strconv"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listBooks(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			abortWithDetail(c, http.StatusNotFound, "Invalid page.")
			return
		}
		page = p
	}
	books, total, err := h.books.List(c.Request.Context(), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, total, books))
}

func (h *Handler) createBook(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.books.Create(c.Request.Context(), currentUserID(c), req.Prompt, req.Language, req.Tags)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	book, err := h.books.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, absoluteBook(c, book))
}

func (h *Handler) generateChapter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req generateChapterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.chapters.GenerateChapter(c.Request.Context(), currentUserID(c), id, models.ChapterRequest{
		Language:               req.Language,
		Summary:                req.Summary,
		SelectedRecommendation: req.SelectedRecommendation,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) updateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := h.books.Update(c.Request.Context(), currentUserID(c), id, req.toUpdate())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, absoluteBook(c, book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.books.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deletePrologue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.books.DeletePrologue(c.Request.Context(), currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondBooks(c *gin.Context, books []*models.Book, err error) {
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, absoluteBooks(c, books))
}

func (h *Handler) userBooks(c *gin.Context) {
	books, err := h.books.UserBooks(c.Request.Context(), currentUserID(c))
	h.respondBooks(c, books, err)
}

func (h *Handler) likedBooks(c *gin.Context) {
	books, err := h.books.LikedBooks(c.Request.Context(), currentUserID(c))
	h.respondBooks(c, books, err)
}

func (h *Handler) searchByTag(c *gin.Context) {
	books, err := h.books.SearchByTag(c.Request.Context(), c.Query("tag"))
	h.respondBooks(c, books, err)
}

func (h *Handler) popularBooks(c *gin.Context) {
	books, err := h.books.PopularBooks(c.Request.Context())
	h.respondBooks(c, books, err)
}

func (h *Handler) recentSearches(c *gin.Context) {
	books, err := h.books.RecentSearches(c.Request.Context(), currentUserID(c))
	h.respondBooks(c, books, err)
}

func (h *Handler) popularTags(c *gin.Context) {
	tags, err := h.books.PopularTags(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) generateChapterImage(c *gin.Context) {
	id, ok := pathID(c, "cid")
	if !ok {
		return
	}
	var req chapterImageRequest
	if !bindJSON(c, &req) {
		return
	}
	imageURL, err := h.chapters.GenerateChapterImage(c.Request.Context(), id, models.ChapterImageRequest{
		Title:   req.Title,
		Tone:    req.Tone,
		Setting: req.Setting,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapterImageResponse{ImageURL: absoluteURL(c, imageURL)})
}
