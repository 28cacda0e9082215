package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	TokenCookie        = "token"
	OTPCookie          = "otpId"
	RegistrationCookie = "registrationId"
)

// SetCookie writes an HttpOnly cookie for the whole site. Cross-site
// frontends need SameSite=None, which browsers only accept with Secure.
func SetCookie(c *gin.Context, name, value string, ttl time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", secure, true)
}

func ClearCookie(c *gin.Context, name string, secure bool) {
	SetCookie(c, name, "", -time.Second, secure)
}
