package main

import (
	"net/url"
	"strings"

	"lifescientific.com/web/internal/cms"
)

const blogPath = "/blog"

// BlogView is the blog index model.
type BlogView struct {
	Posts     []cms.Post
	Tags      []TagLink
	ActiveTag string
	Search    string
	AllHref   string
}

// TagLink is one tag chip on the blog index.
type TagLink struct {
	Name   string
	Active bool
	Href   string
}

// buildBlogView lists posts for the selected tag. Tags are gathered from every post so
// the chips stay put while filtering.
func buildBlogView(all, filtered []cms.Post, tag, search string) BlogView {
	tag = strings.ToLower(strings.TrimSpace(tag))
	search = strings.TrimSpace(search)
	bv := BlogView{
		Posts:     filtered,
		ActiveTag: tag,
		Search:    search,
		AllHref:   blogHref("", search),
	}
	for _, t := range cms.PostTags(all) {
		bv.Tags = append(bv.Tags, TagLink{Name: t, Active: t == tag, Href: blogHref(t, search)})
	}
	return bv
}

func blogHref(tag, search string) string {
	q := url.Values{}
	if tag != "" {
		q.Set("tag", tag)
	}
	if search != "" {
		q.Set("q", search)
	}
	if len(q) == 0 {
		return blogPath
	}
	return blogPath + "?" + q.Encode()
}

func postURL(p cms.Post) string {
	return blogPath + "/" + url.PathEscape(p.Slug)
}
