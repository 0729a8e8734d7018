package controllers

import (
	"context"
	"net/http"

	"brilliox/leadhunter-backend/internal/dto"
	"brilliox/leadhunter-backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// searchService runs a query against the search provider.
type searchService interface {
	Search(ctx context.Context, params handlers.SearchParams) (*handlers.SearchResponse, error)
}

// SearchController handles direct provider search requests
type SearchController struct {
	searcher searchService
}

// NewSearchController creates a new SearchController instance
func NewSearchController(searcher searchService) *SearchController {
	return &SearchController{
		searcher: searcher,
	}
}

// Search godoc
// @Summary      Run a provider search
// @Description  Performs a direct search against the provider and returns organic results, outside the hunt flow
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body dto.SearchRequest true "Search parameters"
// @Success      200 {object} handlers.SearchResponse "Successful search results"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      500 {object} dto.ErrorResponse "Internal server error"
// @Failure      503 {object} dto.ErrorResponse "Search not configured"
// @Router       /search [post]
// @Security     BearerAuth
func (ctrl *SearchController) Search(c *gin.Context) {
	var req dto.SearchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if ctrl.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error: "search is not configured",
		})
		return
	}

	params := handlers.SearchParams{
		Q:              req.Q,
		Hl:             req.Hl,
		Gl:             req.Gl,
		ExcludeDomains: req.ExcludeDomains,
		Num:            req.Num,
		Start:          req.Start,
	}

	result, err := ctrl.searcher.Search(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
