package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/domain/model"
)

// Cookies is a browser session keyed by cookie name.
type Cookies map[string]string

// Validate checks for the two cookies an authenticated session needs.
func (c Cookies) Validate() error {
	var missing []string
	for _, name := range []string{"auth_token", "ct0"} {
		if strings.TrimSpace(c[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: cookie %s not set", model.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// ParseCookieEditor reads the JSON array exported by the Cookie-Editor
// browser extension: [{"name": "...", "value": "..."}, ...].
func ParseCookieEditor(data []byte) (Cookies, error) {
	var entries []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse cookie export: %w", err)
	}
	cookies := Cookies{}
	for _, e := range entries {
		if e.Name != "" {
			cookies[e.Name] = e.Value
		}
	}
	return cookies, nil
}

// ParseCookieHeader reads a "name=value; name2=value2" string.
func ParseCookieHeader(header string) Cookies {
	cookies := Cookies{}
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			cookies[name] = strings.TrimSpace(value)
		}
	}
	return cookies
}

// AccountsFile is the json5 account configuration.
type AccountsFile struct {
	Accounts []AccountEntry   `json:"accounts"`
	QueryIDs map[string]string `json:"query_ids"`
}

// AccountEntry is one configured X account.
type AccountEntry struct {
	Username string `json:"username"`
	Cookies  string `json:"cookies"`
}

// Session is everything needed to replay a logged-in browser.
type Session struct {
	Cookies  Cookies
	QueryIDs map[string]string
	Origin   string
}

// LoadSession prefers the Cookie-Editor export and falls back to the first
// account with a cookie string in the accounts file.
func LoadSession(cookiesFile, accountsFile string) (*Session, error) {
	session := &Session{}

	accounts, err := config.ReadFile[AccountsFile](accountsFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	session.QueryIDs = accounts.QueryIDs

	if data, err := os.ReadFile(cookiesFile); err == nil {
		cookies, err := ParseCookieEditor(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cookiesFile, err)
		}
		session.Cookies = cookies
		session.Origin = cookiesFile
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", cookiesFile, err)
	}

	if session.Cookies == nil {
		for _, account := range accounts.Accounts {
			if strings.TrimSpace(account.Cookies) == "" {
				continue
			}
			session.Cookies = ParseCookieHeader(account.Cookies)
			session.Origin = accountsFile
			break
		}
	}

	if session.Cookies == nil {
		return nil, fmt.Errorf("%w: no cookies in %s or %s", model.ErrMissingCredentials, cookiesFile, accountsFile)
	}
	if err := session.Cookies.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", session.Origin, err)
	}
	return session, nil
}
