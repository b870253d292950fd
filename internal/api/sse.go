package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qualisoftsn/workflow-api/internal/auth"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
)

// SSEHandler streams the caller's pending approval tasks over
// Server-Sent Events. Clients that cannot hold a WebSocket use this
// endpoint instead; the task list is re-sent whenever it changes and a
// heartbeat keeps proxies from closing the connection.
func SSEHandler(validator *auth.TokenValidator, taskSvc service.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			c.Abort()
			return
		}

		initialMsg := map[string]interface{}{
			"type":    "connected",
			"user_id": claims.Subject,
			"time":    time.Now().Unix(),
		}
		initialData, _ := json.Marshal(initialMsg)
		if err := sendSSEMessage(c.Writer, initialData); err != nil {
			return
		}
		flusher.Flush()

		ctx := taskContext(c, claims)
		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()
		poll := time.NewTicker(5 * time.Second)
		defer poll.Stop()

		lastCount := int64(-1)
		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-heartbeat.C:
				msg, _ := json.Marshal(map[string]interface{}{
					"type": "heartbeat",
					"time": time.Now().Unix(),
				})
				if err := sendSSEMessage(c.Writer, msg); err != nil {
					return
				}
				flusher.Flush()
			case <-poll.C:
				tasks, total, err := taskSvc.ListPending(ctx, &repository.TaskFilter{PageSize: 50})
				if err != nil {
					continue
				}
				if total == lastCount {
					continue
				}
				lastCount = total

				msg, err := json.Marshal(map[string]interface{}{
					"type":  "tasks",
					"total": total,
					"tasks": tasks,
					"time":  time.Now().Unix(),
				})
				if err != nil {
					continue
				}
				if err := sendSSEMessage(c.Writer, msg); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// taskContext builds a context carrying the identity from the SSE
// token, mirroring what the auth middleware sets on regular requests.
func taskContext(c *gin.Context, claims *auth.Claims) *gin.Context {
	ctx := c.Copy()
	ctx.Set(auth.ContextUserID, claims.Subject)
	ctx.Set(auth.ContextTenantID, claims.TenantID)
	ctx.Set(auth.ContextRole, claims.Role)
	return ctx
}

// sendSSEMessage writes one event in the "data: <json>\n\n" format.
func sendSSEMessage(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", string(data))
	return err
}
