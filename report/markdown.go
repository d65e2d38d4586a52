package report

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// ExportMarkdown converts a written HTML report into a GitHub-flavored
// markdown companion file. The markdown artifact is a readable summary: the
// interactive visualization script does not survive the conversion, images
// become links.
func ExportMarkdown(htmlPath, mdPath string) error {
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("read report for markdown export: %w", err)
	}

	// Strip the visualization script and the style block up front so their
	// text cannot leak into the converted output.
	cleaned := scriptRe.ReplaceAllString(string(data), "")
	cleaned = styleRe.ReplaceAllString(cleaned, "")

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return fmt.Errorf("convert report to markdown: %w", err)
	}
	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n")
	markdown = strings.TrimSpace(markdown) + "\n"

	if title := extractHTMLTitle(data); title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}

	if err := os.WriteFile(mdPath, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write markdown companion: %w", err)
	}
	return nil
}

// extractHTMLTitle pulls the <title> text from the document.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title
}
