package handlers

import (
	"net/http"

	"cohort-tools-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	cohortIDParam     = "cohortId"
	invalidCohortID   = "Invalid cohort id"
	cohortNotFoundMsg = "Cohort not found"
)

// GetAllCohorts handles GET /api/cohorts
func (h *APIHandler) GetAllCohorts(c *gin.Context) {
	cohorts, err := h.Store.ListCohorts(c.Request.Context())
	if err != nil {
		storeFailure(c, err, "Failed to retrieve cohorts", cohortNotFoundMsg)
		return
	}
	if cohorts == nil {
		cohorts = []models.Cohort{}
	}
	c.JSON(http.StatusOK, cohorts)
}

// GetCohortByID handles GET /api/cohorts/:cohortId
func (h *APIHandler) GetCohortByID(c *gin.Context) {
	id, ok := parseID(c, cohortIDParam, invalidCohortID)
	if !ok {
		return
	}

	cohort, err := h.Store.GetCohort(c.Request.Context(), id)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve cohort", cohortNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, cohort)
}

// CreateCohort handles POST /api/cohorts
func (h *APIHandler) CreateCohort(c *gin.Context) {
	var cohort models.Cohort
	if !bindBody(c, &cohort) {
		return
	}
	cohort.ID = primitive.NilObjectID

	if err := h.Store.CreateCohort(c.Request.Context(), &cohort); err != nil {
		storeFailure(c, err, "Failed to create cohort", cohortNotFoundMsg)
		return
	}
	c.JSON(http.StatusCreated, cohort)
}

// UpdateCohort handles PUT /api/cohorts/:cohortId. Every field is replaced;
// fields missing from the body are cleared.
func (h *APIHandler) UpdateCohort(c *gin.Context) {
	id, ok := parseID(c, cohortIDParam, invalidCohortID)
	if !ok {
		return
	}
	var cohort models.Cohort
	if !bindBody(c, &cohort) {
		return
	}

	updated, err := h.Store.ReplaceCohort(c.Request.Context(), id, &cohort)
	if err != nil {
		storeFailure(c, err, "Failed to update cohort", cohortNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCohort handles DELETE /api/cohorts/:cohortId. Students referencing
// the cohort are left untouched.
func (h *APIHandler) DeleteCohort(c *gin.Context) {
	id, ok := parseID(c, cohortIDParam, invalidCohortID)
	if !ok {
		return
	}

	if err := h.Store.DeleteCohort(c.Request.Context(), id); err != nil {
		storeFailure(c, err, "Failed to delete cohort", cohortNotFoundMsg)
		return
	}
	c.Status(http.StatusNoContent)
}
