package respond

import "github.com/gin-gonic/gin"

// JSON writes a success payload. Error responses go through Error so
// they share the standardized body and get logged.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}
