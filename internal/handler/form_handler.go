package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/formhub-api/internal/dto"
	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	"github.com/noah-isme/formhub-api/internal/service"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/response"
)

// FormHandler exposes form schema endpoints.
type FormHandler struct {
	forms *service.FormService
}

// NewFormHandler constructs the handler.
func NewFormHandler(forms *service.FormService) *FormHandler {
	return &FormHandler{forms: forms}
}

// Create godoc
// @Summary Create a form
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.CreateFormRequest true "Form definition"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /forms [post]
func (h *FormHandler) Create(c *gin.Context) {
	var req dto.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid form payload"))
		return
	}

	form := &models.Form{
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		Status:      req.Status,
	}
	if claims := claimsFromContext(c); claims != nil {
		form.CreatedBy = claims.UserID
	}

	created, err := h.forms.Create(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List forms
// @Tags Forms
// @Produce json
// @Param status query string false "Form status"
// @Param search query string false "Title or description search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms [get]
func (h *FormHandler) List(c *gin.Context) {
	var query dto.ListFormsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	filter := models.FormFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := models.FormStatus(query.Status)
		filter.Status = &status
	}

	forms, pagination, err := h.forms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}

// Get godoc
// @Summary Fetch a form
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id} [get]
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.forms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Update godoc
// @Summary Update a form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.UpdateFormRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id} [patch]
func (h *FormHandler) Update(c *gin.Context) {
	var req dto.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid form payload"))
		return
	}

	form, err := h.forms.Update(c.Request.Context(), c.Param("id"), repository.UpdateFormParams{
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Delete godoc
// @Summary Delete a form and its submissions
// @Tags Forms
// @Param id path string true "Form ID"
// @Success 204
// @Security BearerAuth
// @Router /forms/{id} [delete]
func (h *FormHandler) Delete(c *gin.Context) {
	if err := h.forms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
