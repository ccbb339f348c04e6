package handler

import (
	"strconv"

	"money-transfer/pkg/apperror"
	"money-transfer/pkg/response"

	"github.com/gin-gonic/gin"
)

// parseID reads the :id path parameter. On failure it writes a 400 and
// returns false.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("id must be a positive integer"))
		return 0, false
	}
	return id, true
}
