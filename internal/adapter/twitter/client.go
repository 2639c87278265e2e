package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"newsletter-scrapers/internal/adapter/telemetry"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

var tracer = otel.Tracer("adapter/twitter")

const (
	defaultBaseURL = "https://x.com"
	// Bearer token of the public web client; every logged-in browser sends it.
	webBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	pageSize       = 20
)

// X rotates these ids with web deploys; the accounts file can override them.
var defaultQueryIDs = map[string]string{
	"UserByScreenName": "xmU6X_CKVnQ5lSrCbAmJsg",
	"UserTweets":       "E3opETHurmVJflFsUBVuUQ",
	"SearchTimeline":   "UN1i3zUiCWa-6r-Uaho4fw",
}

var graphQLFeatures = map[string]bool{
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"verified_phone_label_enabled":                                            false,
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"tweetypie_unmention_optimization_enabled":                                true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"view_counts_everywhere_api_enabled":                                      true,
	"longform_notetweets_consumption_enabled":                                 true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"responsive_web_enhance_cards_enabled":                                    false,
	"hidden_profile_likes_enabled":                                            true,
	"highlights_tweets_tab_ui_enabled":                                        true,
	"subscriptions_verification_info_verified_since_enabled":                  true,
}

// Error codes X returns when the session cookies are no longer accepted.
var authErrorCodes = map[int]bool{32: true, 89: true, 239: true, 326: true, 353: true}

// Options configure a Client.
type Options struct {
	BaseURL      string
	Session      *Session
	Timeout      time.Duration
	RequestDelay time.Duration
	Logger       ports.Logger
	Now          func() time.Time
}

// Client replays a browser session against the X web GraphQL API.
type Client struct {
	http     *resty.Client
	queryIDs map[string]string
	logger   ports.Logger
	now      func() time.Time
}

var _ ports.TweetSource = (*Client)(nil)

// NewClient builds a session client. Requests are spaced by RequestDelay.
func NewClient(opts Options) (*Client, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: no X session", model.ErrMissingCredentials)
	}
	if err := opts.Session.Cookies.Validate(); err != nil {
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	cookies := make([]*http.Cookie, 0, len(opts.Session.Cookies))
	for name, value := range opts.Session.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	jar.SetCookies(parsedBaseURL, cookies)
	client.SetCookieJar(jar)

	client.SetHeaders(map[string]string{
		"user-agent":                userAgent,
		"authorization":             "Bearer " + webBearerToken,
		"x-csrf-token":              opts.Session.Cookies["ct0"],
		"x-twitter-auth-type":       "OAuth2Session",
		"x-twitter-active-user":     "yes",
		"x-twitter-client-language": "en",
		"content-type":              "application/json",
	})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "adapter/twitter/http", opts.Logger)

	queryIDs := make(map[string]string, len(defaultQueryIDs))
	for op, id := range defaultQueryIDs {
		queryIDs[op] = id
	}
	for op, id := range opts.Session.QueryIDs {
		if id != "" {
			queryIDs[op] = id
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		http:     client,
		queryIDs: queryIDs,
		logger:   opts.Logger,
		now:      now,
	}, nil
}

// Verify confirms the cookies still belong to a logged-in account.
func (c *Client) Verify(ctx context.Context) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get("/i/api/1.1/account/settings.json")
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("account settings: %w", err)
	}
	if err := checkStatus(res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status")
		return nil, fmt.Errorf("account settings: %w", err)
	}

	var account model.Account
	if err := json.Unmarshal(res.Body(), &account); err != nil {
		return nil, fmt.Errorf("decode account settings: %w", err)
	}
	if account.ScreenName == "" {
		return nil, fmt.Errorf("account settings: %w: no screen name in response", model.ErrAuthentication)
	}
	return &account, nil
}

// UserTweets returns up to limit of the latest tweets posted by handle.
func (c *Client) UserTweets(ctx context.Context, handle string, limit int) ([]model.RawItem, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	ctx, span := tracer.Start(ctx, "UserTweets", trace.WithAttributes(attribute.String("handle", handle)))
	defer span.End()

	user, err := c.user(ctx, handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, err
	}

	items, err := c.paginate(limit, func(cursor string) (page, error) {
		variables := map[string]any{
			"userId":                 user.RestID,
			"count":                  pageSize,
			"includePromotedContent": false,
			"withVoice":              true,
			"withV2Timeline":         true,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}

		var data struct {
			User struct {
				Result struct {
					TimelineV2 struct {
						Timeline timeline `json:"timeline"`
					} `json:"timeline_v2"`
					Timeline struct {
						Timeline timeline `json:"timeline"`
					} `json:"timeline"`
				} `json:"result"`
			} `json:"user"`
		}
		if err := c.graphql(ctx, "UserTweets", variables, &data); err != nil {
			return page{}, err
		}
		tl := data.User.Result.TimelineV2.Timeline
		if len(tl.Instructions) == 0 {
			tl = data.User.Result.Timeline.Timeline
		}
		return parseTimeline(tl), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeline failed")
		return nil, err
	}
	return items, nil
}

// Search returns up to limit of the latest tweets matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.RawItem, error) {
	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	items, err := c.paginate(limit, func(cursor string) (page, error) {
		variables := map[string]any{
			"rawQuery":    query,
			"count":       pageSize,
			"querySource": "typed_query",
			"product":     "Latest",
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}

		var data struct {
			SearchByRawQuery struct {
				SearchTimeline struct {
					Timeline timeline `json:"timeline"`
				} `json:"search_timeline"`
			} `json:"search_by_raw_query"`
		}
		if err := c.graphql(ctx, "SearchTimeline", variables, &data); err != nil {
			return page{}, err
		}
		return parseTimeline(data.SearchByRawQuery.SearchTimeline.Timeline), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	return items, nil
}

func (c *Client) user(ctx context.Context, handle string) (*userResult, error) {
	var data struct {
		User struct {
			Result *userResult `json:"result"`
		} `json:"user"`
	}
	variables := map[string]any{
		"screen_name":              handle,
		"withSafetyModeUserFields": true,
	}
	if err := c.graphql(ctx, "UserByScreenName", variables, &data); err != nil {
		return nil, err
	}

	user := data.User.Result
	if user == nil || user.RestID == "" || user.TypeName == "UserUnavailable" {
		return nil, fmt.Errorf("user @%s: %w", handle, model.ErrNotFound)
	}
	return user, nil
}

// paginate follows bottom cursors until limit tweets are collected or a page
// adds nothing new.
func (c *Client) paginate(limit int, fetch func(cursor string) (page, error)) ([]model.RawItem, error) {
	items := []model.RawItem{}
	seen := map[string]struct{}{}
	cursor := ""

	for len(items) < limit {
		p, err := fetch(cursor)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, tweet := range p.tweets {
			if _, dup := seen[tweet.RestID]; dup {
				continue
			}
			seen[tweet.RestID] = struct{}{}
			items = append(items, toRawItem(tweet, c.now().UTC()))
			added++
			if len(items) >= limit {
				break
			}
		}

		if added == 0 || p.bottomCursor == "" || p.bottomCursor == cursor {
			break
		}
		cursor = p.bottomCursor
	}
	return items, nil
}

func (c *Client) graphql(ctx context.Context, operation string, variables map[string]any, out any) error {
	queryID, ok := c.queryIDs[operation]
	if !ok {
		return fmt.Errorf("no query id for %s", operation)
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return fmt.Errorf("marshal %s variables: %w", operation, err)
	}
	features, err := json.Marshal(graphQLFeatures)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"variables": string(vars),
			"features":  string(features),
		}).
		Get(fmt.Sprintf("/i/api/graphql/%s/%s", queryID, operation))
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := checkStatus(res); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	var envelope struct {
		Errors []graphQLError  `json:"errors"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(res.Body(), &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	for _, e := range envelope.Errors {
		if authErrorCodes[e.Code] {
			return fmt.Errorf("%s: %w: %s (code %d)", operation, model.ErrAuthentication, e.Message, e.Code)
		}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		if len(envelope.Errors) > 0 {
			return fmt.Errorf("%s: %s (code %d)", operation, envelope.Errors[0].Message, envelope.Errors[0].Code)
		}
		return fmt.Errorf("%s: response has no data", operation)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", operation, err)
	}
	return nil
}

func checkStatus(res *resty.Response) error {
	switch code := res.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", model.ErrAuthentication, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("rate limited (status %d)", code)
	case code < 200 || code >= 300:
		body := res.Body()
		if len(body) > 1024 {
			body = body[:1024]
		}
		return fmt.Errorf("unexpected status %d: %s", code, strings.TrimSpace(string(body)))
	}
	return nil
}
