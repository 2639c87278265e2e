package wechat

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/elazarl/goproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
)

func TestExtractCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://mp.weixin.qq.com/mp/getappmsgext?appmsg_token=tok&uin=fallback", nil)
	req.Header.Set("x-wechat-uin", "MTIz")
	req.Header.Set("x-wechat-key", "secret")
	req.Header.Set("Cookie", "rewardsn=; wap_sid2=CJ")

	creds := ExtractCredentials(req)
	assert.Equal(t, Credentials{
		XWeChatUIN:  "MTIz",
		XWeChatKey:  "secret",
		Cookie:      "rewardsn=; wap_sid2=CJ",
		AppMsgToken: "tok",
	}, creds)
}

func TestExtractCredentialsIgnoresAnonymousCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://mp.weixin.qq.com/s/abc", nil)
	req.Header.Set("Cookie", "rewardsn=; wxtokenkey=777")

	assert.Equal(t, Credentials{}, ExtractCredentials(req))
}

func TestCaptureWritesLocalOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wechat.json")
	capture, err := NewCapture(path, logging.New(nil))
	require.NoError(t, err)

	first := httptest.NewRequest(http.MethodGet, "https://mp.weixin.qq.com/s/abc", nil)
	first.Header.Set("x-wechat-uin", "MTIz")
	first.Header.Set("x-wechat-key", "secret")
	capture.Observe(context.Background(), first)

	saved := <-capture.Saved()
	assert.True(t, saved.CanFetch())

	second := httptest.NewRequest(http.MethodPost, "https://mp.weixin.qq.com/mp/getappmsgext?appmsg_token=tok", nil)
	second.Header.Set("Cookie", "wap_sid2=CJ")
	capture.Observe(context.Background(), second)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "MTIz", creds.XWeChatUIN)
	assert.Equal(t, "tok", creds.AppMsgToken)
	assert.True(t, creds.CanReadMetrics())
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "wechat.local.json"))
}

func TestCaptureServesCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wechat.json")
	capture, err := NewCapture(path, logging.New(nil))
	require.NoError(t, err)
	assert.FileExists(t, CAPath(path))
	assert.Equal(t, CAPath(path), capture.CAPath())

	srv := httptest.NewServer(capture.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/ca.pem")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEqual(t, goproxy.CA_CERT, body)
	assert.NotContains(t, string(body), "PRIVATE KEY")

	block, _ := pem.Decode(body)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.True(t, cert.IsCA)
	assert.Equal(t, "newsletter-scrapers capture CA", cert.Subject.CommonName)

	info, err := os.Stat(CAPath(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCaptureReusesCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wechat.json")
	first, err := NewCapture(path, logging.New(nil))
	require.NoError(t, err)
	second, err := NewCapture(path, logging.New(nil))
	require.NoError(t, err)
	assert.Equal(t, first.caPEM, second.caPEM)

	other, err := NewCapture(filepath.Join(t.TempDir(), "wechat.json"), logging.New(nil))
	require.NoError(t, err)
	assert.NotEqual(t, first.caPEM, other.caPEM)
}

func TestCaptureRejectsCorruptCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wechat.json")
	require.NoError(t, os.WriteFile(CAPath(path), []byte("not a pem"), 0o600))

	_, err := NewCapture(path, logging.New(nil))
	require.Error(t, err)
}
