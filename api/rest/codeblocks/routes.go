package codeblocks

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/codepair/server/internal/ratings"
)

// ratingLimit, when set, guards rating submissions
func RegisterRoutes(router *gin.RouterGroup, catalog Catalog, aggregator *ratings.Aggregator, ratingLimit gin.HandlerFunc) {
	router.GET("/codeblocks", ListCodeBlocksHandler(catalog, aggregator))
	router.GET("/codeblock/:id", GetCodeBlockHandler(catalog))
	router.GET("/codeblock/:id/rating", GetRatingHandler(aggregator))

	submit := []gin.HandlerFunc{SubmitRatingHandler(aggregator)}
	if ratingLimit != nil {
		submit = append([]gin.HandlerFunc{ratingLimit}, submit...)
	}

	router.POST("/codeblock/:id/rating", submit...)
}
