// Package export renders a form's responses as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/relation"
	"github.com/devmahmoudi/formgen/pkg/schema"
)

const timeFormat = "2006-01-02 15:04:05"

// WriteCSV streams responses as CSV. The header is the submission timestamp,
// one column per schema field in order, then the response id. Relation values
// are substituted with their resolved labels when a resolution is provided.
func WriteCSV(w io.Writer, s schema.Schema, responses []models.Response, resolutions []relation.Resolution) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(s.Fields)+2)
	header = append(header, "Submitted At")
	for _, field := range s.Fields {
		label := field.Label
		if label == "" {
			label = field.ID
		}
		header = append(header, label)
	}
	header = append(header, "Response ID")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, resp := range responses {
		row := make([]string, 0, len(header))
		row = append(row, resp.CreatedAt.Format(timeFormat))
		for _, field := range s.Fields {
			row = append(row, cellValue(field, resp.Data[field.ID], resolutions))
		}
		row = append(row, resp.ID)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds the download filename for a form's export.
func Filename(formTitle string, now time.Time) string {
	title := strings.TrimSpace(formTitle)
	if title == "" {
		title = "responses"
	}
	title = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, title)
	return fmt.Sprintf("%s-%s.csv", strings.ToLower(title), now.Format("2006-01-02"))
}

func cellValue(field models.FormField, value any, resolutions []relation.Resolution) string {
	if value == nil {
		return ""
	}

	if field.Type == models.FieldTypeRelation {
		if label := relation.Label(resolutions, field.ID, value); label != "" {
			return label
		}
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		// json numbers decode as float64; render integers without a decimal.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
