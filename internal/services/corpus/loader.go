// -----------------------------------------------------------------------
// Corpus Loader - Load municipal zoning documents from the corpus
// directory tree into tagged documents
// -----------------------------------------------------------------------

package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/pdf"
)

// Loader reads the on-disk corpus into documents. The corpus directory
// holds one subdirectory per municipality; every readable file inside a
// subdirectory becomes a document tagged with that municipality.
type Loader struct {
	dir            string
	municipalities []string
	pdfExtractor   *pdf.Extractor
	logger         arbor.ILogger
}

// NewLoader creates a corpus loader for the configured directory and
// municipality list.
func NewLoader(config *common.Config, pdfExtractor *pdf.Extractor, logger arbor.ILogger) *Loader {
	return &Loader{
		dir:            config.Corpus.Dir,
		municipalities: config.Corpus.Municipalities,
		pdfExtractor:   pdfExtractor,
		logger:         logger,
	}
}

// Load reads every corpus file and returns the resulting documents.
// A missing municipality directory is logged and skipped; an unreadable
// or unconvertible file is logged and skipped. Load fails only when the
// corpus root itself is unusable.
func (l *Loader) Load(ctx context.Context) ([]models.Document, error) {
	if _, err := os.Stat(l.dir); err != nil {
		return nil, fmt.Errorf("corpus directory %s not accessible: %w", l.dir, err)
	}

	var documents []models.Document
	for _, municipality := range l.municipalities {
		municipalityDir := filepath.Join(l.dir, municipality)
		entries, err := os.ReadDir(municipalityDir)
		if err != nil {
			l.logger.Warn().Err(err).
				Str("municipality", municipality).
				Msg("Skipping municipality with unreadable corpus directory")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(municipalityDir, entry.Name())
			doc, err := l.loadFile(ctx, path, municipality)
			if err != nil {
				l.logger.Warn().Err(err).
					Str("file", path).
					Msg("Skipping unreadable corpus file")
				continue
			}
			if doc == nil {
				continue
			}
			documents = append(documents, *doc)
		}
	}

	l.logger.Info().
		Int("document_count", len(documents)).
		Int("municipality_count", len(l.municipalities)).
		Msg("Corpus loaded")

	return documents, nil
}

// loadFile converts a single corpus file into a document. Unsupported
// extensions return (nil, nil).
func (l *Loader) loadFile(ctx context.Context, path, municipality string) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var content string
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		content = string(raw)

	case ".html", ".htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		converted, htmlTitle, err := l.convertHTML(string(raw))
		if err != nil {
			return nil, err
		}
		content = converted
		if htmlTitle != "" {
			title = htmlTitle
		}

	case ".pdf":
		text, err := l.pdfExtractor.ExtractFile(ctx, path)
		if err != nil {
			return nil, err
		}
		content = text

	default:
		l.logger.Debug().Str("file", path).Msg("Ignoring unsupported corpus file type")
		return nil, nil
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	return &models.Document{
		ID:       common.NewDocumentID(),
		SourceID: filepath.ToSlash(filepath.Join(municipality, filepath.Base(path))),
		Title:    title,
		Content:  content,
		Tags:     map[string]string{models.TagMunicipality: municipality},
	}, nil
}

// convertHTML turns an HTML page into markdown and pulls the page title.
func (l *Loader) convertHTML(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Scripts and chrome carry no zoning content.
	doc.Find("script, style, nav, footer, aside").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize HTML: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	converted, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return converted, title, nil
}
