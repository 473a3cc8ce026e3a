package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated subject's ID or empty string. For
// mechanic tokens this is the mechanic ID.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated subject's role or empty string.
func GetRole(c *gin.Context) string {
	if v, ok := c.Get("userRole"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetPhone returns the authenticated subject's phone or empty string.
func GetPhone(c *gin.Context) string {
	if v, ok := c.Get("userPhone"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
