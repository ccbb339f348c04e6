package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"money-transfer/internal/core/domain"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	method string
	path   string
}

type auditTarget struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes maps registered route patterns to audit actions.
var auditRoutes = map[auditRoute]auditTarget{
	{http.MethodPost, "/api/accounts"}:             {domain.AuditActionCreateAccount, "account"},
	{http.MethodPut, "/api/accounts/:id"}:          {domain.AuditActionUpdateAccount, "account"},
	{http.MethodPatch, "/api/accounts/:id"}:        {domain.AuditActionUpdateAccount, "account"},
	{http.MethodDelete, "/api/accounts/:id"}:       {domain.AuditActionDeleteAccount, "account"},
	{http.MethodPost, "/api/transfers"}:            {domain.AuditActionCreateTransfer, "transfer"},
	{http.MethodPut, "/api/transfers/:id"}:         {domain.AuditActionSettleTransfer, "transfer"},
	{http.MethodPost, "/api/transfers/:id/settle"}: {domain.AuditActionSettleTransfer, "transfer"},
}

// AuditLog creates an audit middleware that logs successful write operations.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		target, ok := auditRoutes[auditRoute{c.Request.Method, c.FullPath()}]
		if !ok {
			return
		}

		resourceID := c.Param("id")
		if v, exists := c.Get(CtxResourceID); exists {
			resourceID = fmt.Sprint(v)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			RequestID:    c.GetString(response.RequestIDKey),
			Action:       target.action,
			ResourceType: target.resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
