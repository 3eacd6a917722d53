package guard

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(remoteAddr string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = remoteAddr
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestClientIdentityFromRemoteAddr(t *testing.T) {
	c := testContext("1.2.3.4:5678", nil)
	assert.Equal(t, "1.2.3.4", ClientIdentity(c))
}

func TestClientIdentityFromForwardedFor(t *testing.T) {
	c := testContext("10.0.0.1:80", map[string]string{
		"X-Forwarded-For": "203.0.113.9, 10.0.0.1",
	})
	assert.Equal(t, "203.0.113.9", ClientIdentity(c))
}

func TestClientIdentityFromRealIP(t *testing.T) {
	c := testContext("", map[string]string{"X-Real-IP": "198.51.100.7"})
	assert.Equal(t, "198.51.100.7", ClientIdentity(c))
}

func TestClientIdentityUnknownFallback(t *testing.T) {
	c := testContext("", nil)
	assert.Equal(t, "unknown", ClientIdentity(c))
}

func TestIdentityPrefersGateValue(t *testing.T) {
	c := testContext("1.2.3.4:5678", nil)
	c.Set(IdentityKey, "5.6.7.8")
	assert.Equal(t, "5.6.7.8", Identity(c))
}
