package extractor

import (
	"bytes"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are stripped before conversion; they never carry report text.
const noiseSelectors = "script, style, noscript, nav, header, footer, form, iframe, svg"

// htmlText converts the main content of an HTML page to Markdown.
func htmlText(body []byte, domain string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("extractor: parse html: %w", err)
	}

	doc.Find(noiseSelectors).Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	converter := md.NewConverter(domain, true, nil)
	return converter.Convert(content), nil
}
