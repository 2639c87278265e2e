package wechat

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/elazarl/goproxy"

	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/domain/ports"
)

var wechatHost = regexp.MustCompile(`^mp\.weixin\.qq\.com(:443)?$`)

// Capture is an HTTPS proxy that decrypts only mp.weixin.qq.com traffic and
// stores the credentials it sees in the .local override of the config file.
type Capture struct {
	proxy      *goproxy.ProxyHttpServer
	configFile string
	caPath     string
	caPEM      []byte
	logger     ports.Logger

	mu    sync.Mutex
	creds Credentials
	saved chan Credentials
}

// NewCapture builds the proxy. Credentials already on disk are kept and only
// overwritten by newer values. Intercepted TLS is signed by the install's own
// CA at CAPath(configFile), which is generated on first use.
func NewCapture(configFile string, logger ports.Logger) (*Capture, error) {
	caPath := CAPath(configFile)
	ca, caPEM, err := loadOrCreateCA(caPath)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		proxy:      goproxy.NewProxyHttpServer(),
		configFile: configFile,
		caPath:     caPath,
		caPEM:      caPEM,
		logger:     logger,
		saved:      make(chan Credentials, 1),
	}
	if existing, err := LoadCredentials(configFile); err == nil {
		c.creds = existing
	}

	mitm := &goproxy.ConnectAction{Action: goproxy.ConnectMitm, TLSConfig: goproxy.TLSConfigFromCA(&ca)}
	c.proxy.OnRequest(goproxy.ReqHostMatches(wechatHost)).HandleConnectFunc(
		func(host string, _ *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
			return mitm, host
		})
	c.proxy.OnRequest(goproxy.ReqHostMatches(wechatHost)).DoFunc(
		func(req *http.Request, _ *goproxy.ProxyCtx) (*http.Request, *http.Response) {
			c.Observe(req.Context(), req)
			return req, nil
		})

	c.proxy.NonproxyHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ca.pem" {
			http.Error(w, "this is a proxy; download the CA from /ca.pem", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/x-x509-ca-cert")
		w.Header().Set("Content-Disposition", `attachment; filename="newsletter-scrapers-ca.pem"`)
		_, _ = w.Write(c.caPEM)
	})
	return c, nil
}

// CAPath is the file holding the proxy's CA certificate and key.
func (c *Capture) CAPath() string {
	return c.caPath
}

// Handler is the http.Handler to serve the proxy with.
func (c *Capture) Handler() http.Handler {
	return c.proxy
}

// Saved delivers the credentials each time the override file is rewritten.
func (c *Capture) Saved() <-chan Credentials {
	return c.saved
}

// Observe extracts credentials from one intercepted request and persists them
// when anything changed.
func (c *Capture) Observe(ctx context.Context, req *http.Request) {
	found := ExtractCredentials(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.creds.merge(found) {
		return
	}
	path, err := config.WriteLocal(c.configFile, File{Credentials: c.creds})
	if err != nil {
		c.logger.Error(ctx, "saving captured wechat credentials failed", "error", err)
		return
	}
	c.logger.Info(ctx, "captured wechat credentials",
		"path", path,
		"uin", c.creds.XWeChatUIN != "",
		"key", c.creds.XWeChatKey != "",
		"cookie", c.creds.Cookie != "",
		"appmsg_token", c.creds.AppMsgToken != "",
	)

	select {
	case c.saved <- c.creds:
	default:
	}
}

// ExtractCredentials reads whatever credentials a WeChat client request
// carries in its headers and query string.
func ExtractCredentials(req *http.Request) Credentials {
	q := req.URL.Query()
	creds := Credentials{
		XWeChatUIN:  req.Header.Get("x-wechat-uin"),
		XWeChatKey:  req.Header.Get("x-wechat-key"),
		Cookie:      req.Header.Get("Cookie"),
		AppMsgToken: q.Get("appmsg_token"),
	}
	if creds.XWeChatUIN == "" {
		creds.XWeChatUIN = q.Get("uin")
	}
	if creds.XWeChatKey == "" {
		creds.XWeChatKey = q.Get("key")
	}
	// Cookies without a session are set by the landing page and are useless.
	if !strings.Contains(creds.Cookie, "wap_sid2") && !strings.Contains(creds.Cookie, "pass_ticket") {
		creds.Cookie = ""
	}
	return creds
}
