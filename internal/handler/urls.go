package handler

import (
	"net/url"
	"strconv"
	"strings"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
)

// requestBase возвращает scheme://host текущего запроса.
func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.SplitN(proto, ",", 2)[0])
	}
	return scheme + "://" + c.Request.Host
}

// absoluteURL дополняет относительный путь хостом запроса.
func absoluteURL(c *gin.Context, u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return requestBase(c) + u
}

func absolutePtr(c *gin.Context, u *string) *string {
	if u == nil {
		return nil
	}
	abs := absoluteURL(c, *u)
	return &abs
}

// absoluteBooks переводит image_url книг и картинки глав в абсолютные URL.
func absoluteBooks(c *gin.Context, books []*models.Book) []*models.Book {
	if books == nil {
		return []*models.Book{}
	}
	for _, b := range books {
		absoluteBook(c, b)
	}
	return books
}

func absoluteBook(c *gin.Context, b *models.Book) *models.Book {
	if b == nil {
		return nil
	}
	b.ImageURL = absolutePtr(c, b.ImageURL)
	if b.Chapters == nil {
		b.Chapters = []*models.Chapter{}
	}
	for _, ch := range b.Chapters {
		ch.Image = absolutePtr(c, ch.Image)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

// pageLink - ссылка на страницу page текущего списка; nil, если ее нет.
func pageLink(c *gin.Context, page int) *string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := requestBase(c) + u.String()
	return &link
}

func paginate(c *gin.Context, page int, total int64, results []*models.Book) models.PaginatedResponse[*models.Book] {
	resp := models.PaginatedResponse[*models.Book]{Count: total, Results: absoluteBooks(c, results)}
	if int64(page*models.DefaultPageSize) < total {
		resp.Next = pageLink(c, page+1)
	}
	if page > 1 {
		resp.Previous = pageLink(c, page-1)
	}
	return resp
}

// pathID разбирает целочисленный параметр пути.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		handleServiceError(c, models.ErrNotFound)
		return 0, false
	}
	return id, true
}
