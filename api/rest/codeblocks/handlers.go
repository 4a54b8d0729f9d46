package codeblocks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/ratings"
)

// ListCodeBlocksHandler godoc
// @Summary List code blocks
// @Description Returns every code block with its rating totals, for the lobby
// @Tags codeblocks
// @Produce json
// @Success 200 {array} CodeBlockSummary
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/codeblocks [get]
func ListCodeBlocksHandler(catalog Catalog, aggregator *ratings.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		blocks, err := catalog.List(ctx)
		if err != nil {
			errors.InternalError(c, "failed to list code blocks", err)
			return
		}

		summaries := make([]CodeBlockSummary, 0, len(blocks))

		for _, b := range blocks {
			// totals come from the rating store, which may live outside the catalog
			totals, err := aggregator.Totals(ctx, b.ID)
			if err != nil {
				errors.InternalError(c, "failed to load ratings", err)
				return
			}

			summaries = append(summaries, CodeBlockSummary{
				ID:          b.ID,
				Name:        b.Name,
				TotalRating: totals.Sum,
				NumRatings:  totals.Count,
			})
		}

		c.JSON(http.StatusOK, summaries)
	}
}

// GetCodeBlockHandler godoc
// @Summary Get a code block
// @Description Returns the name, starting code and reference solution of one code block
// @Tags codeblocks
// @Produce json
// @Param id path string true "Code block ID"
// @Success 200 {object} CodeBlockResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/codeblock/{id} [get]
func GetCodeBlockHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		block, err := catalog.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.Respond(c, err, "code block")
			return
		}

		c.JSON(http.StatusOK, CodeBlockResponse{
			ID:          block.ID,
			Name:        block.Name,
			InitialCode: block.InitialCode,
			Solution:    block.Solution,
		})
	}
}

// GetRatingHandler godoc
// @Summary Get average rating
// @Tags codeblocks
// @Produce json
// @Param id path string true "Code block ID"
// @Success 200 {object} RatingResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/codeblock/{id}/rating [get]
func GetRatingHandler(aggregator *ratings.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		avg, err := aggregator.Average(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.Respond(c, err, "code block")
			return
		}

		c.JSON(http.StatusOK, RatingResponse{AverageRating: avg})
	}
}

// SubmitRatingHandler godoc
// @Summary Rate a code block
// @Description Records a difficulty rating from 1 to 5 and returns the updated average
// @Tags codeblocks
// @Accept json
// @Produce json
// @Param id path string true "Code block ID"
// @Param request body SubmitRatingRequest true "Rating"
// @Success 200 {object} RatingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /api/codeblock/{id}/rating [post]
func SubmitRatingHandler(aggregator *ratings.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitRatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		avg, err := aggregator.Submit(c.Request.Context(), c.Param("id"), *req.Rating)
		if err != nil {
			errors.Respond(c, err, "code block")
			return
		}

		c.JSON(http.StatusOK, RatingResponse{AverageRating: avg})
	}
}
