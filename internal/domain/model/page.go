package model

// PageContent is the readable part of a linked web page.
type PageContent struct {
	Title string
	Text  string
	Media []Media
}

// Account is the identity behind a replayed session.
type Account struct {
	ScreenName string `json:"screen_name"`
	Language   string `json:"language,omitempty"`
}
