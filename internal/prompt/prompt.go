// Package prompt renders the LLM prompts used for re-ranking, answering and
// source validation.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var templates = template.Must(
	template.New("prompts").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/*.txt"),
)

const (
	RerankSystem = "rerank_system.txt"
	Rerank       = "rerank.txt"
	AnswerSystem = "answer_system.txt"
	Answer       = "answer.txt"
	Validate     = "validate.txt"
)

type RerankData struct {
	Question string
	Segments []string
	TopK     int
}

type AnswerData struct {
	Question string
	Context  string
}

type ValidateData struct {
	Question string
	Answer   string
	Chunk    string
}

// Render executes the named template and trims surrounding whitespace.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		// segments are numbered one per line
		"oneline": func(s string) string {
			return strings.Join(strings.Fields(s), " ")
		},
		"example": func(n int) string {
			parts := make([]string, 0, n)
			for _, v := range []int{3, 5, 1, 2, 4} {
				if len(parts) == n {
					break
				}
				parts = append(parts, strconv.Itoa(v))
			}
			for i := 6; len(parts) < n; i++ {
				parts = append(parts, strconv.Itoa(i))
			}
			return strings.Join(parts, ",")
		},
	}
}
