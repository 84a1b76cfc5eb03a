package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"donortrack/internal/storage"
)

// crudService is the shape shared by every entity service.
type crudService[T any, F any] interface {
	Create(ctx context.Context, v T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context, f F, p storage.Page) ([]T, error)
	Update(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) (T, error)
}

// entityRequest is a request body that converts to its entity.
type entityRequest[T any] interface {
	entity() T
}

// resource wires the five CRUD routes of one entity kind. R is the request
// body type, PR its pointer (what gets bound).
type resource[T any, F any, R any, PR interface {
	*R
	entityRequest[T]
}] struct {
	svc    crudService[T, F]
	filter func(*gin.Context) (F, error)
}

func (res resource[T, F, R, PR]) register(g *gin.RouterGroup) {
	// both /x and /x/ are served without a redirect
	g.POST("", res.create)
	g.POST("/", res.create)
	g.GET("", res.list)
	g.GET("/", res.list)
	g.GET("/:id", res.get)
	g.PUT("/:id", res.update)
	g.DELETE("/:id", res.delete)
}

func (res resource[T, F, R, PR]) create(c *gin.Context) {
	var req R
	if !bindJSON(c, PR(&req)) {
		return
	}
	created, err := res.svc.Create(c.Request.Context(), PR(&req).entity())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (res resource[T, F, R, PR]) list(c *gin.Context) {
	page, err := ParsePage(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	f, err := res.filter(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	items, err := res.svc.List(c.Request.Context(), f, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (res resource[T, F, R, PR]) get(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	item, err := res.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (res resource[T, F, R, PR]) update(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	var req R
	if !bindJSON(c, PR(&req)) {
		return
	}
	updated, err := res.svc.Update(c.Request.Context(), id, PR(&req).entity())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (res resource[T, F, R, PR]) delete(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	deleted, err := res.svc.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}
