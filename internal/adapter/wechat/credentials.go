package wechat

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/domain/model"
)

const captureHint = "run `scraper wechat capture`, trust the proxy CA on your phone and open any article in WeChat"

// Credentials are the values WeChat's in-app browser sends with article requests.
type Credentials struct {
	XWeChatUIN  string `json:"x_wechat_uin,omitempty"`
	XWeChatKey  string `json:"x_wechat_key,omitempty"`
	Cookie      string `json:"cookie,omitempty"`
	AppMsgToken string `json:"appmsg_token,omitempty"`
}

// File is the json5 WeChat configuration. The capture proxy only ever writes
// the credentials block of the .local override.
type File struct {
	Credentials Credentials `json:"credentials"`
}

// CanFetch reports whether articles can be requested as a logged-in reader.
func (c Credentials) CanFetch() bool {
	return (c.XWeChatUIN != "" && c.XWeChatKey != "") || c.Cookie != ""
}

// CanReadMetrics reports whether getappmsgext can be called.
func (c Credentials) CanReadMetrics() bool {
	return c.AppMsgToken != "" && c.Cookie != ""
}

// Validate returns ErrMissingCredentials when article fetches cannot be made.
func (c Credentials) Validate() error {
	if !c.CanFetch() {
		return fmt.Errorf("%w: need x_wechat_uin and x_wechat_key, or cookie; %s", model.ErrMissingCredentials, captureHint)
	}
	return nil
}

// merge copies every non-empty field of other into c and reports whether
// anything changed.
func (c *Credentials) merge(other Credentials) bool {
	changed := false
	set := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&c.XWeChatUIN, other.XWeChatUIN)
	set(&c.XWeChatKey, other.XWeChatKey)
	set(&c.Cookie, other.Cookie)
	set(&c.AppMsgToken, other.AppMsgToken)
	return changed
}

// LoadCredentials reads the credentials block of path and its .local override.
func LoadCredentials(path string) (Credentials, error) {
	file, err := config.ReadFile[File](path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, fmt.Errorf("%w: %s not found; %s", model.ErrMissingCredentials, path, captureHint)
	}
	if err != nil {
		return Credentials{}, err
	}
	return file.Credentials, nil
}
