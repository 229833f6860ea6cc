package scanner

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/snail/internal/config"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// TemplateName derives the template name for a file: the base name
// without its extension. With the title policy every segment separated by
// '_', '-', '.' or a space is title cased and the separators are dropped,
// so "table-row.html" becomes "TableRow".
func TemplateName(path, nameCase string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if nameCase != config.NameCaseTitle {
		return name
	}

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(titleCaser.String(part))
	}
	return b.String()
}
