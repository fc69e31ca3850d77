package handlers

import (
	"io"
	"net/http"

	"cohort-tools-api/db"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// APIHandler holds the dependencies for API handlers, like the store
type APIHandler struct {
	Store db.Store
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store) *APIHandler {
	return &APIHandler{
		Store: store,
	}
}

// parseID reads an ObjectID path parameter. On failure it records a 400 and
// returns false.
func parseID(c *gin.Context, param, invalidMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		fail(c, http.StatusBadRequest, invalidMsg, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindBody decodes the JSON request body into obj. An empty body is an
// empty record, so obj keeps its zero value.
func bindBody(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// Ping handles GET /api/ping
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, "Store unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
