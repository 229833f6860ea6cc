package validation

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// MarkupIssue describes an unbalanced tag in rendered output.
type MarkupIssue struct {
	Line    int
	Tag     string
	Message string
}

func (m MarkupIssue) String() string {
	return fmt.Sprintf("line %d: %s", m.Line, m.Message)
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type openTag struct {
	name string
	line int
}

// CheckMarkup tokenizes s as HTML and reports end tags without a matching
// start tag and start tags that are never closed. Void elements and self
// closing tags are ignored. Text that is not markup yields no issues.
func CheckMarkup(s string) []MarkupIssue {
	var (
		issues []MarkupIssue
		stack  []openTag
		line   = 1
	)

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				issues = append(issues, MarkupIssue{Line: line, Message: z.Err().Error()})
			}
			break
		}

		raw := z.Raw()
		tokenLine := line
		line += strings.Count(string(raw), "\n")

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidElements[tag] {
				stack = append(stack, openTag{name: tag, line: tokenLine})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tag {
					idx = i
					break
				}
			}
			if idx < 0 {
				issues = append(issues, MarkupIssue{
					Line:    tokenLine,
					Tag:     tag,
					Message: fmt.Sprintf("closing </%s> has no matching opening tag", tag),
				})
				continue
			}
			for _, unclosed := range stack[idx+1:] {
				issues = append(issues, unclosedIssue(unclosed))
			}
			stack = stack[:idx]
		}
	}

	for _, unclosed := range stack {
		issues = append(issues, unclosedIssue(unclosed))
	}

	return issues
}

func unclosedIssue(t openTag) MarkupIssue {
	return MarkupIssue{
		Line:    t.line,
		Tag:     t.name,
		Message: fmt.Sprintf("<%s> is never closed", t.name),
	}
}
