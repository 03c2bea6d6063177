package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

// respondOK marshals data to a map and merges {"success":true} into it, so
// every route-specific response struct in models/ gets the envelope the
// teacher's models.ScrapeResponse carries inline (models/api.go documents
// this contract; models/ stays free of a generic envelope wrapper type
// with embedded interface{} payload).
func respondOK(c *gin.Context, status int, data interface{}) {
	if data == nil {
		c.JSON(status, gin.H{"success": true})
		return
	}
	buf, err := json.Marshal(data)
	if err != nil {
		respondErr(c, ccerrors.New(ccerrors.CodeInternal, "failed to marshal response", err))
		return
	}
	var m map[string]interface{}
	if err := json.Unmarshal(buf, &m); err != nil {
		respondErr(c, ccerrors.New(ccerrors.CodeInternal, "failed to marshal response", err))
		return
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	m["success"] = true
	c.JSON(status, m)
}

// respondErr maps err to a status code and writes the {success:false,error}
// envelope (spec.md §6, §7).
func respondErr(c *gin.Context, err error) {
	de, ok := ccerrors.As(err)
	if !ok {
		de = ccerrors.New(ccerrors.CodeInternal, err.Error(), err)
	}
	c.JSON(statusForCode(de.Code), models.Envelope{
		Success: false,
		Error:   &models.Detail{Code: de.Code, Message: de.Message},
	})
}

// bindErr writes an InvalidJSON-flavored 400 for a request binding failure
// (spec.md §7: InvalidJSON/BodyTooLarge -> 400).
func bindErr(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.Envelope{
		Success: false,
		Error:   &models.Detail{Code: ccerrors.CodeInvalidJSON, Message: err.Error()},
	})
}

// statusForCode translates a ccerrors code to an HTTP status (spec.md §7).
func statusForCode(code string) int {
	switch code {
	case ccerrors.CodeConfigNotFound, ccerrors.CodeTabNotFound, ccerrors.CodeUnknownRef, ccerrors.CodeUnknownRoute:
		return http.StatusNotFound
	case ccerrors.CodeInvalidJSON, ccerrors.CodeInvalidInput:
		return http.StatusBadRequest
	case ccerrors.CodeBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	case ccerrors.CodeNoActiveSession, ccerrors.CodeSessionMismatch, ccerrors.CodePortInUse,
		ccerrors.CodeMultipleMatches, ccerrors.CodeDetachedElement, ccerrors.CodeAliasConflict:
		return http.StatusConflict
	case ccerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case ccerrors.CodeUnsupportedCaptcha:
		return http.StatusUnprocessableEntity
	case ccerrors.CodeVisionBackendError:
		return http.StatusBadGateway
	case ccerrors.CodeLaunchFailed, ccerrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
