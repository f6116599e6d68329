package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
)

// Renderer turns a Message into an HTML body.
type Renderer struct {
	source TemplateSource
}

func NewRenderer(source TemplateSource) *Renderer {
	return &Renderer{source: source}
}

// Render returns the HTML body for msg, or "" when its template does not
// exist and the plain-text fallback should be used.
func (r *Renderer) Render(ctx context.Context, msg Message) (string, error) {
	if msg.Template == "" || r.source == nil {
		return "", nil
	}

	text, err := r.source.Load(ctx, msg.Template)
	if errors.Is(err, ErrTemplateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	t, err := template.New(msg.Template).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", msg.Template, err)
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, msg.Data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}
