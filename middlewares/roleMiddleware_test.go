package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		want     bool
	}{
		{"exact match", "admin", []string{"admin"}, true},
		{"one of several", "superadmin", []string{"admin", "superadmin"}, true},
		{"no match", "citizen", []string{"admin", "superadmin"}, false},
		{"empty role", "", []string{"admin"}, false},
		{"no required roles", "admin", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleAllowed(tt.role, tt.required...); got != tt.want {
				t.Errorf("RoleAllowed(%q, %v) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func roleTestRouter(role string, gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}, gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name string
		role string
		gate gin.HandlerFunc
		want int
	}{
		{"admin passes admin gate", "admin", RequireAdmin(), http.StatusOK},
		{"superadmin passes admin gate", "superadmin", RequireAdmin(), http.StatusOK},
		{"citizen blocked by admin gate", "citizen", RequireAdmin(), http.StatusForbidden},
		{"admin blocked by superadmin gate", "admin", RequireSuperAdmin(), http.StatusForbidden},
		{"superadmin passes superadmin gate", "superadmin", RequireSuperAdmin(), http.StatusOK},
		{"missing role is unauthorized", "", RequireAdmin(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			roleTestRouter(tt.role, tt.gate).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
