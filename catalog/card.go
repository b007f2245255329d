package catalog

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Card is one entry on the API index page.
type Card struct {
	// ID is the filename prefix before the first hyphen.
	ID string

	// Label is the upper-cased ID shown on the card.
	Label string

	// Href links to the documentation page.
	Href string

	// Title is info.title when the file parses.
	Title string

	// Summary is the first paragraph of info.description rendered as HTML.
	Summary template.HTML
}

// Cards lists one card per distinct prefix among the spec files in the
// directory, sorted by ID. Every file of the configured format is listed,
// allow-listed or not; unreadable files still get a card without a title.
func (l *Loader) Cards(ctx context.Context) ([]Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read spec dir: %w", err)
	}

	suffix := l.format.FileSuffix()
	seen := make(map[string]struct{})
	cards := make([]Card, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}

		id := CardID(name)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		card := Card{
			ID:    id,
			Label: strings.ToUpper(id),
			Href:  "/docs/" + id,
		}
		if data, err := os.ReadFile(filepath.Join(l.dir, name)); err == nil {
			if doc, err := Decode(data, l.format); err == nil {
				card.Title = doc.Title()
				card.Summary = renderSummary(doc.Description())
			}
		}
		cards = append(cards, card)
	}

	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

// CardID returns the part of a spec filename before the first hyphen.
func CardID(filename string) string {
	id, _, _ := strings.Cut(filename, "-")
	return id
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// renderSummary renders the first paragraph of a markdown description.
// Raw HTML in the source is dropped by goldmark's default renderer.
func renderSummary(description string) template.HTML {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	first, _, _ := strings.Cut(description, "\n\n")

	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(first), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(first))
	}
	return template.HTML(buf.String())
}
