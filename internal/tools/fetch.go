// ABOUTME: `fetch` handler: retrieves a URL and extracts its readable content as markdown
// ABOUTME: Results are cached in-memory with a TTL; HTML is reduced to markdown

package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/corepilot/agentcore/internal/permission"
	"github.com/corepilot/agentcore/internal/types"
	"golang.org/x/net/html"
)

var fetchCache = newFetchResultCache()

func (e *Executor) handleFetch(ctx context.Context, args []string, _ string, _ bool) (types.ToolResult, error) {
	url, err := requireArg(args, 0, "url")
	if err != nil {
		return errResult(err), nil
	}

	if strings.HasPrefix(url, "http://") && !strings.Contains(url, "localhost") && !strings.Contains(url, "127.0.0.1") {
		url = "https://" + url[len("http://"):]
	}

	if err := permission.ValidateHTTPURL(url); err != nil {
		return errResult(fmt.Errorf("refusing to fetch %s: %w", url, err)), nil
	}

	if cached, ok := fetchCache.Get(url); ok {
		return okResult(cached), nil
	}

	client := e.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errResult(fmt.Errorf("creating request: %w", err)), nil
	}
	req.Header.Set("User-Agent", "agentcore/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return errResult(fmt.Errorf("fetching %s: %w", url, err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return errResult(fmt.Errorf("reading response: %w", err)), nil
	}

	content := htmlToMarkdown(string(body))
	result := TruncateHead(content, MaxReadLines, MaxReadBytes)
	content = result.Content
	if result.Truncated {
		content += fmt.Sprintf("\n... [%s]", result.Reason)
	}

	fetchCache.Set(url, content)
	return okResult(content), nil
}

func htmlToMarkdown(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var b strings.Builder
	extractReadable(doc, &b, false)
	return strings.TrimSpace(b.String())
}

func extractReadable(n *html.Node, b *strings.Builder, inPre bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "iframe", "noscript":
			return
		case "h1":
			b.WriteString("\n# ")
		case "h2":
			b.WriteString("\n## ")
		case "h3":
			b.WriteString("\n### ")
		case "h4", "h5", "h6":
			b.WriteString("\n#### ")
		case "p", "div", "section", "article":
			b.WriteString("\n\n")
		case "br":
			b.WriteString("\n")
		case "li":
			b.WriteString("\n- ")
		case "pre":
			b.WriteString("\n```\n")
			inPre = true
		case "code":
			if !inPre {
				b.WriteString("`")
			}
		case "a":
			href := getAttr(n, "href")
			if href != "" {
				text := extractText(n)
				if text != "" {
					fmt.Fprintf(b, "[%s](%s)", text, href)
					return
				}
			}
		case "strong", "b":
			b.WriteString("**")
		case "em", "i":
			b.WriteString("*")
		}
	}

	if n.Type == html.TextNode {
		text := n.Data
		if !inPre {
			text = strings.Join(strings.Fields(text), " ")
		}
		if text != "" && text != " " {
			b.WriteString(text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractReadable(c, b, inPre)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "pre":
			b.WriteString("\n```\n")
		case "code":
			if !inPre {
				b.WriteString("`")
			}
		case "strong", "b":
			b.WriteString("**")
		case "em", "i":
			b.WriteString("*")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
