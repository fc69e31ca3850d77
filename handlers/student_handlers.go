package handlers

import (
	"net/http"

	"cohort-tools-api/db"
	"cohort-tools-api/metrics"
	"cohort-tools-api/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	studentIDParam     = "studentId"
	invalidStudentID   = "Invalid student id"
	studentNotFoundMsg = "Student not found"
)

// bindStudent decodes a full student record from the body
func bindStudent(c *gin.Context) (*models.Student, bool) {
	var student models.Student
	if !bindBody(c, &student) {
		return nil, false
	}
	student.ID = primitive.NilObjectID
	if student.Cohort != nil && student.Cohort.IsZero() {
		student.Cohort = nil
	}
	if student.Projects == nil {
		student.Projects = []interface{}{}
	}
	return &student, true
}

// GetAllStudents handles GET /api/students
func (h *APIHandler) GetAllStudents(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.Store.ListStudents(ctx)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve students", studentNotFoundMsg)
		return
	}

	views, err := db.ExpandStudents(ctx, h.Store, students)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve students", studentNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetStudentsByCohort handles GET /api/students/cohort/:cohortId
func (h *APIHandler) GetStudentsByCohort(c *gin.Context) {
	cohortID, ok := parseID(c, cohortIDParam, invalidCohortID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	students, err := h.Store.ListStudentsByCohort(ctx, cohortID)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve students for the cohort", studentNotFoundMsg)
		return
	}

	views, err := db.ExpandStudents(ctx, h.Store, students)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve students for the cohort", studentNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetStudentByID handles GET /api/students/:studentId
func (h *APIHandler) GetStudentByID(c *gin.Context) {
	id, ok := parseID(c, studentIDParam, invalidStudentID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	student, err := h.Store.GetStudent(ctx, id)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve student", studentNotFoundMsg)
		return
	}

	view, err := db.ExpandStudent(ctx, h.Store, *student)
	if err != nil {
		storeFailure(c, err, "Failed to retrieve student", studentNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateStudent handles POST /api/students
func (h *APIHandler) CreateStudent(c *gin.Context) {
	student, ok := bindStudent(c)
	if !ok {
		return
	}

	if err := h.Store.CreateStudent(c.Request.Context(), student); err != nil {
		storeFailure(c, err, "Failed to create student", studentNotFoundMsg)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// UpdateStudent handles PUT /api/students/:studentId. Every field is
// replaced; fields missing from the body are cleared.
func (h *APIHandler) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c, studentIDParam, invalidStudentID)
	if !ok {
		return
	}
	student, ok := bindStudent(c)
	if !ok {
		return
	}

	updated, err := h.Store.ReplaceStudent(c.Request.Context(), id, student)
	if err != nil {
		storeFailure(c, err, "Failed to update student", studentNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteStudent handles DELETE /api/students/:studentId
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c, studentIDParam, invalidStudentID)
	if !ok {
		return
	}

	if err := h.Store.DeleteStudent(c.Request.Context(), id); err != nil {
		storeFailure(c, err, "Failed to delete student", studentNotFoundMsg)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportStudents handles POST /api/students/import, a multipart form with a
// cohortId field and an .xlsx file
func (h *APIHandler) ImportStudents(c *gin.Context) {
	cohortID, err := primitive.ObjectIDFromHex(c.PostForm(cohortIDParam))
	if err != nil {
		fail(c, http.StatusBadRequest, invalidCohortID, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Missing spreadsheet file", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Unreadable spreadsheet file", errors.Wrapf(err, "opening upload '%s'", header.Filename))
		return
	}
	defer file.Close()

	imported, err := db.ImportStudentsFromExcel(c.Request.Context(), h.Store, file, cohortID)
	metrics.StudentsImportedTotal.Add(float64(imported))
	if err != nil {
		storeFailure(c, err, "Failed to import students", cohortNotFoundMsg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": imported,
		"cohortId":      cohortID.Hex(),
	})
}
