package site

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/go-stattic/internal/content"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// buildFeed writes feed/index.xml with the most recent posts. It needs an
// absolute site URL and is skipped without one.
func (a *Assembler) buildFeed(posts []Post) error {
	if a.cfg.URL == "" || len(posts) == 0 {
		return nil
	}
	data, err := Feed(a.cfg, posts)
	if err != nil {
		return err
	}
	return a.write("feed/index.xml", data)
}

// Feed renders an RSS 2.0 document for the FeedItems newest posts.
func Feed(cfg Config, posts []Post) ([]byte, error) {
	recent := append([]Post(nil), posts...)
	SortPosts(recent, SortByDate)
	if len(recent) > FeedItems {
		recent = recent[:FeedItems]
	}

	base := strings.TrimRight(cfg.URL, "/")
	name := siteName(cfg)
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         name,
			Link:          base,
			Description:   "Latest posts from " + name,
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
		},
	}
	for i := range recent {
		p := &recent[i]
		link := base + "/" + p.Path()
		pub := p.Date
		if pub.IsZero() {
			pub = now
		}
		desc := p.Excerpt
		if desc == "" {
			desc = p.Title
		}
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: strings.Join(strings.Fields(content.PlainText(desc)), " "),
			PubDate:     pub.UTC().Format(time.RFC1123Z),
			GUID:        link,
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// siteName is the configured title, else the host of the site URL.
func siteName(cfg Config) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return "Stattic"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
