// Package pagefunc holds code that runs against a loaded page: the caller's
// content extraction and the built-in link discovery.
package pagefunc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/bfs-crawler/pkg/utils"
)

// Func is a function evaluated against a loaded page.
//
// Script is a JavaScript function expression; browser renderers call it in the
// page's script context with the evaluation arguments. Document is the
// equivalent for renderers that only hold the parsed DOM. A renderer returns an
// error when the variant it needs is missing.
type Func struct {
	Name     string
	Script   string
	Document func(doc *goquery.Document, args ...any) (any, error)
}

// FromScript wraps caller-supplied JavaScript as a Func.
func FromScript(name, script string) Func {
	return Func{Name: name, Script: strings.TrimSpace(script)}
}

// Links collects the resolved href of every anchor on the page.
var Links = Func{
	Name:     "discoverLinks",
	Script:   `() => Array.from(document.querySelectorAll('a[href]'), (a) => a.href)`,
	Document: documentLinks,
}

// Default is the page function used when none is configured. It receives the
// job label and returns basic page metadata.
var Default = Func{
	Name: "default",
	Script: `(label) => {
	const meta = document.querySelector('meta[name="description"]');
	return {
		label: label,
		url: location.href,
		title: document.title,
		description: meta ? meta.getAttribute('content') : '',
		headings: Array.from(document.querySelectorAll('h1, h2, h3'), (h) => h.textContent.trim()),
	};
}`,
	Document: documentDefault,
}

func documentLinks(doc *goquery.Document, _ ...any) (any, error) {
	links := []string{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := utils.ToAbsoluteURL(doc.Url, strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, abs)
	})
	return links, nil
}

func documentDefault(doc *goquery.Document, args ...any) (any, error) {
	label := ""
	if len(args) > 0 {
		label, _ = args[0].(string)
	}
	pageURL := ""
	if doc.Url != nil {
		pageURL = doc.Url.String()
	}
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	headings := []string{}
	doc.Find("h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		headings = append(headings, strings.TrimSpace(s.Text()))
	})

	return map[string]any{
		"label":       label,
		"url":         pageURL,
		"title":       strings.TrimSpace(doc.Find("title").First().Text()),
		"description": description,
		"headings":    headings,
	}, nil
}
