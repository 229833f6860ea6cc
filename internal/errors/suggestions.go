package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// TemplateNotFoundSuggestions proposes fixes for a reference to a
// template the registry does not know. available lists registered names.
func TemplateNotFoundSuggestions(name string, available []string, configPath string) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check template file exists",
			Description: "Templates are named after their file, so " + name + " is expected in one of the scanned directories",
			Example:     "templates/" + strings.ToLower(name) + ".html",
		},
		{
			Title:       "List all discovered templates",
			Description: "See which templates snail has registered",
			Command:     "snail list",
		},
	}
	if configPath != "" {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check scan paths configuration",
			Description: "Verify the templates.paths setting includes the template directory",
			Command:     "cat " + configPath,
			Example:     "templates:\n  paths:\n    - \"./templates\"",
		})
	}

	if len(available) == 0 {
		return suggestions
	}

	if similar := SimilarNames(name, available, 3); len(similar) > 0 {
		for _, s := range similar {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       fmt.Sprintf("Did you mean '%s'?", s),
				Description: "Similar template found",
				Command:     "snail inspect " + s,
			})
		}
	} else {
		names := append([]string(nil), available...)
		sort.Strings(names)
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Available templates",
			Description: "These templates are currently available: " + strings.Join(names, ", "),
		})
	}

	return suggestions
}

// MissingParameterSuggestions proposes fixes for an unbound mandatory parameter.
func MissingParameterSuggestions(parameter string) []ErrorSuggestion {
	return []ErrorSuggestion{
		{
			Title:       "Provide the parameter",
			Description: "Add a value for " + parameter + " to the parameters file or the command line",
			Command:     "snail render <template> --set " + parameter + "=value",
		},
		{
			Title:       "Make the parameter optional",
			Description: "Optional parameters render as nothing when absent",
			Example:     "<!-- (optional)(param)" + parameter + " -->",
		},
	}
}

// SimilarNames returns up to limit candidates whose edit distance to name
// is small relative to its length, closest first.
func SimilarNames(name string, candidates []string, limit int) []string {
	type scored struct {
		name     string
		distance int
	}

	target := strings.ToLower(name)
	threshold := len(target)/3 + 1

	var matches []scored
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == target {
			continue
		}
		d := levenshtein(target, lc)
		if d <= threshold || strings.Contains(lc, target) || strings.Contains(target, lc) {
			matches = append(matches, scored{c, d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.name
	}
	return result
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// FormatSuggestions renders suggestions for terminal output.
func FormatSuggestions(suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Suggestions:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "  • %s", s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, ": %s", s.Description)
		}
		b.WriteByte('\n')
		if s.Command != "" {
			fmt.Fprintf(&b, "      $ %s\n", s.Command)
		}
		if s.Example != "" {
			for _, line := range strings.Split(s.Example, "\n") {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
	}
	return b.String()
}
