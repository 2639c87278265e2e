package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"newsletter-scrapers/internal/adapter/telemetry"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

var tracer = otel.Tracer("adapter/wechat")

const (
	defaultBaseURL = "https://mp.weixin.qq.com"
	userAgent      = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_7 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 MicroMessenger/8.0.68(0x1800442c) NetType/WIFI Language/zh_CN"
)

// getappmsgext answers with these base_resp.ret values when the token or
// cookie has expired.
var authRetCodes = map[int]bool{-3: true, 301: true, 302: true, 200003: true}

// Options configure a Client.
type Options struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration
	Logger      ports.Logger
	Now         func() time.Time
}

// Client reads 公众号 articles the way WeChat's in-app browser does.
type Client struct {
	http   *resty.Client
	creds  Credentials
	logger ports.Logger
	now    func() time.Time
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient validates the credentials and prepares a session.
func NewClient(opts Options) (*Client, error) {
	if err := opts.Credentials.Validate(); err != nil {
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeaders(map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	})
	if opts.Credentials.XWeChatUIN != "" {
		client.SetHeader("x-wechat-uin", opts.Credentials.XWeChatUIN)
		client.SetHeader("x-wechat-key", opts.Credentials.XWeChatKey)
	}
	if opts.Credentials.Cookie != "" {
		client.SetHeader("Cookie", opts.Credentials.Cookie)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(client, "adapter/wechat/http", opts.Logger)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		http:   client,
		creds:  opts.Credentials,
		logger: opts.Logger,
		now:    now,
	}, nil
}

// Verify probes getappmsgext. Without an appmsg_token WeChat can only reject
// the session, so an answer that is not an auth failure yields
// model.ErrUnverified rather than success.
func (c *Client) Verify(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()

	if !c.creds.CanReadMetrics() {
		err := c.probe(ctx)
		if err != nil && !errors.Is(err, model.ErrUnverified) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "verify failed")
		}
		return err
	}

	_, err := c.metrics(ctx, articleRef{})
	var retErr *retError
	if errors.As(err, &retErr) && !retErr.auth {
		// Any non-auth ret means WeChat accepted the session but not the empty article ref.
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		return err
	}
	return nil
}

func (c *Client) probe(ctx context.Context) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("f", "json").
		Get("/mp/getappmsgext")
	if err != nil {
		return fmt.Errorf("probe getappmsgext: %w", err)
	}
	if err := checkStatus(res); err != nil {
		return fmt.Errorf("probe getappmsgext: %w", err)
	}

	var ext appMsgExt
	if err := json.Unmarshal(res.Body(), &ext); err == nil && authRetCodes[ext.BaseResp.Ret] {
		return fmt.Errorf("probe getappmsgext: %w", &retError{ret: ext.BaseResp.Ret, msg: ext.BaseResp.ErrMsg, auth: true})
	}
	return fmt.Errorf("%w: no appmsg_token captured, so WeChat cannot confirm the uin/key session", model.ErrUnverified)
}

// Article downloads and parses one article, adding engagement metrics when an
// appmsg_token is configured.
func (c *Client) Article(ctx context.Context, articleURL string) (*model.RawItem, error) {
	ctx, span := tracer.Start(ctx, "Article", trace.WithAttributes(attribute.String("url", articleURL)))
	defer span.End()

	articleURL = strings.TrimSpace(articleURL)
	if !strings.HasPrefix(articleURL, "http") {
		return nil, fmt.Errorf("article url %q is not http(s)", articleURL)
	}

	res, err := c.http.R().SetContext(ctx).Get(articleURL)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("get article: %w", err)
	}
	if err := checkStatus(res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status")
		return nil, fmt.Errorf("get article: %w", err)
	}

	a, err := parseArticle(res.Body(), articleURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}

	now := c.now().UTC()
	item := toRawItem(articleURL, a, now)

	switch {
	case !c.creds.CanReadMetrics():
		c.logger.Debug(ctx, "skipping wechat metrics, appmsg_token or cookie not set", "url", articleURL)
	case !a.ref.complete():
		c.logger.Warn(ctx, "article has no biz/mid/idx/sn, skipping metrics", "url", articleURL)
	default:
		m, err := c.metrics(ctx, a.ref)
		if err != nil {
			c.logger.Warn(ctx, "wechat metrics failed", "url", articleURL, "error", err)
			item.Metadata["metrics_error"] = err.Error()
			break
		}
		m.apply(&item, now)
	}

	item.Normalize()
	return &item, nil
}

type appMsgExt struct {
	AppMsgStat struct {
		ReadNum    int `json:"read_num"`
		LikeNum    int `json:"like_num"`
		OldLikeNum int `json:"old_like_num"`
	} `json:"appmsgstat"`
	CommentCount int `json:"comment_count"`
	BaseResp     struct {
		Ret    int    `json:"ret"`
		ErrMsg string `json:"errmsg"`
	} `json:"base_resp"`
}

func (m *appMsgExt) apply(item *model.RawItem, now time.Time) {
	item.ImpressionsViews = model.IntPtr(m.AppMsgStat.ReadNum)
	item.ImpressionsLikes = m.AppMsgStat.LikeNum + m.AppMsgStat.OldLikeNum
	item.ImpressionsReplies = m.CommentCount
	item.ImpressionsUpdatedAt = model.TimePtr(now)
	item.Metadata["old_likes"] = m.AppMsgStat.OldLikeNum
	item.Metadata["new_likes"] = m.AppMsgStat.LikeNum
}

type retError struct {
	ret  int
	msg  string
	auth bool
}

func (e *retError) Error() string {
	return fmt.Sprintf("getappmsgext ret %d: %s", e.ret, e.msg)
}

func (e *retError) Unwrap() error {
	if e.auth {
		return model.ErrAuthentication
	}
	return nil
}

func (c *Client) metrics(ctx context.Context, ref articleRef) (*appMsgExt, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"__biz":        ref.biz,
			"mid":          ref.mid,
			"sn":           ref.sn,
			"idx":          ref.idx,
			"appmsg_token": c.creds.AppMsgToken,
			"x5":           "0",
			"f":            "json",
		}).
		SetFormData(map[string]string{
			"is_only_read": "1",
			"is_temp_url":  "0",
			"appmsg_type":  "9",
		}).
		Post("/mp/getappmsgext")
	if err != nil {
		return nil, fmt.Errorf("getappmsgext: %w", err)
	}
	if err := checkStatus(res); err != nil {
		return nil, fmt.Errorf("getappmsgext: %w", err)
	}

	var ext appMsgExt
	if err := json.Unmarshal(res.Body(), &ext); err != nil {
		return nil, fmt.Errorf("decode getappmsgext: %w", err)
	}
	if ret := ext.BaseResp.Ret; ret != 0 {
		return nil, &retError{ret: ret, msg: ext.BaseResp.ErrMsg, auth: authRetCodes[ret]}
	}
	return &ext, nil
}

func toRawItem(articleURL string, a *article, now time.Time) model.RawItem {
	id := model.URLItemID(articleURL)

	media := make([]model.Media, 0, len(a.images))
	for _, src := range a.images {
		media = append(media, model.Media{Type: "image", URL: src})
	}

	metadata := map[string]any{
		"platform":  "wechat_gongzhonghao",
		"old_likes": 0,
		"new_likes": 0,
	}
	if a.ref.biz != "" {
		metadata["biz"] = a.ref.biz
	}
	if a.ref.complete() {
		metadata["mid"] = a.ref.mid
		metadata["idx"] = a.ref.idx
		metadata["sn"] = a.ref.sn
	}

	return model.RawItem{
		ID:             id,
		Source:         model.SourceWeChat,
		SourceID:       id,
		Title:          a.title,
		Content:        a.contentText,
		ContentHTML:    a.contentHTML,
		URL:            articleURL,
		AuthorUsername: a.account,
		AuthorCategory: "official_account",
		Media:          media,
		PublishedAt:    model.TimePtr(a.publishedAt),
		ScrapedAt:      now,
		Metadata:       metadata,
	}
}

func checkStatus(res *resty.Response) error {
	switch code := res.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", model.ErrAuthentication, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", model.ErrNotFound, code)
	case code < 200 || code >= 300:
		body := res.Body()
		if len(body) > 1024 {
			body = body[:1024]
		}
		return fmt.Errorf("unexpected status %d: %s", code, strings.TrimSpace(string(body)))
	}
	return nil
}
