package handler

import (
	"net/http"

	"money-transfer/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const homePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>MoneyTransfer</title>
  <link rel="stylesheet" href="/assets/style.css">
</head>
<body>
  <h1>MoneyTransfer</h1>
  <p>Accounts: <a href="/api/accounts">/api/accounts</a> &middot; Transfers: <a href="/api/transfers">/api/transfers</a> &middot; <a href="/swagger">API docs</a></p>
</body>
</html>`

// Home serves the landing page.
func Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homePage))
}

// HealthCheck handles GET /health. With no checkers the service reports
// healthy, since the ledger itself lives in process.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
