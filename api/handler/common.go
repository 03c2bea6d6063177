package handler

import (
	"github.com/gin-gonic/gin"
)

// bind binds the JSON body into req, writing the standard bad-request
// envelope and reporting failure if binding fails.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindErr(c, err)
		return false
	}
	return true
}

// defaulter is implemented by every verb request that fills in zero-value
// fields before dispatch (spec.md §4.4 default values).
type defaulter interface {
	Defaults()
}

func applyDefaults(req interface{}) {
	if dd, ok := req.(defaulter); ok {
		dd.Defaults()
	}
}
