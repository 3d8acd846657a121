package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

const propfindAllProp = `<?xml version="1.0" encoding="utf-8" ?><D:propfind xmlns:D="DAV:"><D:allprop/></D:propfind>`

type multistatus struct {
	XMLName   xml.Name `xml:"DAV: multistatus"`
	Responses []struct {
		Href string `xml:"DAV: href"`
	} `xml:"DAV: response"`
}

// parseMultistatus returns the base names of the members of dir found in a
// PROPFIND response, skipping the collection itself.
func parseMultistatus(body []byte, dir string) ([]string, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("decode multistatus: %w", err)
	}
	self := strings.Trim(dir, "/")
	var items []string
	for _, r := range ms.Responses {
		href := strings.TrimSpace(r.Href)
		if u, err := url.Parse(href); err == nil {
			href = u.Path
		}
		trimmed := strings.Trim(href, "/")
		if trimmed == self || trimmed == "" {
			continue
		}
		items = append(items, path.Base(trimmed))
	}
	return items, nil
}

// parseAutoindex scrapes an nginx autoindex page: every link inside <pre>
// except the parent link, with slashes removed.
func parseAutoindex(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse autoindex: %w", err)
	}
	var items []string
	var walk func(n *html.Node, inPre bool)
	walk = func(n *html.Node, inPre bool) {
		if n.Type == html.ElementNode && n.Data == "pre" {
			inPre = true
		}
		if inPre && n.Type == html.ElementNode && n.Data == "a" {
			if name := textOf(n); name != "../" && name != "" {
				if name = strings.ReplaceAll(name, "/", ""); name != "" {
					items = append(items, name)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inPre)
		}
	}
	walk(doc, false)
	return items, nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
