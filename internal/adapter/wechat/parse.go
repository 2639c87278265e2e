package wechat

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"newsletter-scrapers/internal/adapter/htmltext"
	"newsletter-scrapers/internal/domain/model"
)

const maxImages = 10

// Article pages show publish times in Beijing time.
var beijing = time.FixedZone("CST", 8*60*60)

var (
	createTimePattern = regexp.MustCompile(`var\s+ct\s*=\s*"(\d+)"`)

	verificationMarkers = []string{"环境异常", "去验证", "请在微信客户端打开链接", "参数错误"}
	deletedMarkers      = []string{"该内容已被发布者删除", "此内容因违规无法查看", "此内容被投诉且经审核涉嫌侵权"}
)

type article struct {
	title       string
	account     string
	contentHTML string
	contentText string
	images      []string
	publishedAt time.Time
	ref         articleRef
}

// articleRef identifies an article to getappmsgext.
type articleRef struct {
	biz string
	mid string
	idx string
	sn  string
}

func (r articleRef) complete() bool {
	return r.biz != "" && r.mid != "" && r.idx != "" && r.sn != ""
}

func parseArticle(body []byte, pageURL string) (*article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article html: %w", err)
	}

	content := doc.Find("div#js_content").First()
	if content.Length() == 0 {
		content = doc.Find("div.rich_media_content").First()
	}

	if content.Length() == 0 {
		page := doc.Text()
		for _, marker := range deletedMarkers {
			if strings.Contains(page, marker) {
				return nil, fmt.Errorf("article %s: %w: %s", pageURL, model.ErrNotFound, marker)
			}
		}
		for _, marker := range verificationMarkers {
			if strings.Contains(page, marker) {
				return nil, fmt.Errorf("article %s: %w: WeChat asked for verification (%s)", pageURL, model.ErrAuthentication, marker)
			}
		}
		return nil, fmt.Errorf("article %s: no article body in page", pageURL)
	}

	a := &article{}

	a.title = strings.TrimSpace(doc.Find("h1.rich_media_title").First().Text())
	if a.title == "" {
		a.title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if a.title == "" {
		a.title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		a.title = strings.TrimSpace(a.title)
	}

	a.account = strings.TrimSpace(doc.Find("a#js_name").First().Text())
	if a.account == "" {
		a.account = strings.TrimSpace(doc.Find("span.rich_media_meta_nickname").First().Text())
	}

	if html, err := goquery.OuterHtml(content); err == nil {
		a.contentHTML = html
	}
	inner, _ := content.Html()
	a.contentText = htmltext.Convert(inner)

	doc.Find("img[data-src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if src, ok := img.Attr("data-src"); ok && strings.HasPrefix(src, "http") {
			a.images = append(a.images, src)
		}
		return len(a.images) < maxImages
	})

	script := doc.Find("script").Text()
	a.publishedAt = publishTime(strings.TrimSpace(doc.Find("em#publish_time").First().Text()), script)
	a.ref = refFromURL(pageURL)
	a.ref.fillFromScript(script)

	return a, nil
}

// publishTime prefers the rendered date and falls back to the ct unix
// timestamp embedded in the page script.
func publishTime(rendered, script string) time.Time {
	if rendered != "" {
		if t, err := dateparse.ParseIn(rendered, beijing); err == nil {
			return t.UTC()
		}
	}
	if m := createTimePattern.FindStringSubmatch(script); m != nil {
		if sec, err := strconv.ParseInt(m[1], 10, 64); err == nil && sec > 0 {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Time{}
}

func refFromURL(raw string) articleRef {
	u, err := url.Parse(raw)
	if err != nil {
		return articleRef{}
	}
	q := u.Query()
	return articleRef{biz: q.Get("__biz"), mid: q.Get("mid"), idx: q.Get("idx"), sn: q.Get("sn")}
}

// fillFromScript completes a ref from the `var biz = "" || "..."` style
// assignments short links carry in the page.
func (r *articleRef) fillFromScript(script string) {
	fields := []struct {
		dst  *string
		name string
	}{
		{&r.biz, "biz"},
		{&r.mid, "mid"},
		{&r.idx, "idx"},
		{&r.sn, "sn"},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		pattern := regexp.MustCompile(`var\s+` + f.name + `\s*=\s*([^;\n]+)`)
		for _, m := range pattern.FindAllStringSubmatch(script, -1) {
			if v := firstQuoted(m[1]); v != "" {
				*f.dst = v
				break
			}
		}
	}
}

var quoted = regexp.MustCompile(`"([^"]*)"`)

// firstQuoted returns the first non-empty string literal of an expression
// such as `"" || "MzA3"`.
func firstQuoted(expr string) string {
	for _, m := range quoted.FindAllStringSubmatch(expr, -1) {
		if m[1] != "" {
			return m[1]
		}
	}
	return ""
}
