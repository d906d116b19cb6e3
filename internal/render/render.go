package render

import (
	"bytes"
	"fmt"
	html "html/template"
	"regexp"
	text "text/template"

	"bulkmail/internal/models"
)

var stripTagsRegex = regexp.MustCompile("<[^>]*>")

// Render substitutes recipient fields into the template's subject and body.
// The subject is treated as plain text, the body as HTML. Placeholders that
// resolve to nothing render as empty text rather than failing; a template
// that cannot be parsed at all returns an error.
func Render(tmpl *models.EmailTemplate, rec models.RecipientRecord, fileName string) (models.RenderedMessage, error) {
	data := map[string]string{
		"name":      rec.Name,
		"email":     rec.Email,
		"file_name": fileName,
	}

	subject, err := renderText(tmpl.Subject, data)
	if err != nil {
		return models.RenderedMessage{}, fmt.Errorf("subject: %w", err)
	}

	body, err := renderHTML(tmpl.Body, data)
	if err != nil {
		return models.RenderedMessage{}, fmt.Errorf("body: %w", err)
	}

	return models.RenderedMessage{Subject: subject, Body: body}, nil
}

func renderText(src string, data map[string]string) (string, error) {
	t, err := text.New("subject").Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}

	return buf.String(), nil
}

func renderHTML(src string, data map[string]string) (string, error) {
	t, err := html.New("body").Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}

	return buf.String(), nil
}

// PlainText derives the text/plain fallback from an HTML body by stripping
// markup.
func PlainText(body string) string {
	return stripTagsRegex.ReplaceAllString(body, "")
}
