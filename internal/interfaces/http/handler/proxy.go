package handler

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unistore/backend/internal/infrastructure/config"
	"github.com/unistore/backend/internal/infrastructure/storefront"
)

// maxProxyBody caps proxied response bodies, mirroring the adapter cap.
const maxProxyBody = 10 * 1024 * 1024

// ProxyHandler forwards raw requests to the remote storefronts for the
// endpoints the normalized API does not model. The caller's credentials
// pass through untouched; configured fallbacks fill in when the caller
// sends none.
type ProxyHandler struct {
	BaseHandler
	remote config.RemoteConfig
	client *http.Client
	logger *zap.Logger
}

// NewProxyHandler creates a new ProxyHandler
func NewProxyHandler(remote config.RemoteConfig, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		remote: remote,
		client: &http.Client{Timeout: remote.Timeout},
		logger: logger,
	}
}

// forward relays the request to baseURL joined with the wildcard path.
// fallback mutates the outbound header when the caller sent no
// credentials of its own.
func (h *ProxyHandler) forward(c *gin.Context, baseURL string, fallback func(http.Header)) {
	target := strings.TrimRight(baseURL, "/") + c.Param("path")
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		h.BadRequest(c, "invalid proxy request")
		return
	}

	for _, name := range []string{"Content-Type", "Accept", "Authorization", "Cookie", "X-Request-ID"} {
		if v := c.GetHeader(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if fallback != nil {
		fallback(req.Header)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("proxy request failed",
			zap.String("target", target), zap.Error(err))
		h.HandleError(c, storefront.WrapUnavailable(err))
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	c.Status(resp.StatusCode)
	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	if _, err := io.Copy(c.Writer, io.LimitReader(resp.Body, maxProxyBody)); err != nil {
		h.logger.Warn("proxy response copy failed",
			zap.String("target", target), zap.Error(err))
	}
}

func (h *ProxyHandler) railway(c *gin.Context) {
	h.forward(c, h.remote.RailwayBaseURL, func(header http.Header) {
		if header.Get("Authorization") == "" && h.remote.RailwayAuthToken != "" {
			header.Set("Authorization", storefront.NormalizeBearer(h.remote.RailwayAuthToken))
		}
	})
}

func (h *ProxyHandler) ecom(c *gin.Context) {
	h.forward(c, h.remote.EcomBaseURL, func(header http.Header) {
		if header.Get("Authorization") == "" && h.remote.EcomAuthToken != "" {
			header.Set("Authorization", storefront.NormalizeBearer(h.remote.EcomAuthToken))
		}
	})
}

func (h *ProxyHandler) phoneStore(c *gin.Context) {
	h.forward(c, h.remote.PhoneStoreBaseURL, func(header http.Header) {
		if header.Get("Cookie") == "" && h.remote.PhoneStoreUser != "" {
			header.Set("Cookie", "user="+url.QueryEscape(h.remote.PhoneStoreUser))
		}
	})
}

// RegisterRoutes registers proxy routes
func (h *ProxyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	proxy := rg.Group("/proxy")
	{
		proxy.Any("/railway/*path", h.railway)
		proxy.Any("/ecom/*path", h.ecom)
		proxy.Any("/phonestore/*path", h.phoneStore)
	}
}
