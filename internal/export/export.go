// Package export renders a set of canonical properties to CSV, JSON or a
// print-ready tabular layout. The caller decides the scope and order; the
// formatter never reorders its input.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"property-platform/internal/models"
)

// Format selects an output rendering.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatPrint Format = "print"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatPrint, "pdf":
		return FormatPrint, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Render renders the properties in the given format.
func Render(format Format, properties []models.Property) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(properties)
	case FormatJSON:
		return renderJSON(properties)
	case FormatPrint:
		return renderPrint(properties)
	}
	return nil, fmt.Errorf("unsupported export format: %s", format)
}

// csvHeader is the fixed canonical column order.
var csvHeader = []string{
	"id", "source", "title", "description",
	"price_amount", "price_currency", "price_period",
	"listing_type", "property_type", "status",
	"bedrooms", "bathrooms", "area",
	"address_line1", "city", "postcode", "country",
	"images",
	"agent_name", "agent_email", "agent_phone",
	"views", "inquiries", "favorites",
	"external_ref", "created_at",
}

// renderCSV writes one row per property. Values containing the delimiter or
// a newline are quote-escaped by the csv writer; numeric fields are
// rendered unit-less.
func renderCSV(properties []models.Property) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for i := range properties {
		p := &properties[i]
		row := []string{
			p.ID,
			string(p.Source),
			p.Title,
			p.Description,
			formatFloat(p.Price.Amount),
			p.Price.Currency,
			string(p.Price.Period),
			string(p.ListingType),
			p.PropertyType,
			string(p.Status),
			strconv.Itoa(p.Bedrooms),
			strconv.Itoa(p.Bathrooms),
			formatFloat(p.Area),
			p.Location.AddressLine1,
			p.Location.City,
			p.Location.Postcode,
			p.Location.Country,
			strings.Join(p.Media.Images, "|"),
			p.Agent.Name,
			p.Agent.Email,
			p.Agent.Phone,
			strconv.Itoa(p.Analytics.Views),
			strconv.Itoa(p.Analytics.Inquiries),
			strconv.Itoa(p.Analytics.Favorites),
			p.ExternalRef,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// renderJSON produces an array of canonical objects suitable for round-trip
// re-import. Key order follows the canonical struct and is stable.
func renderJSON(properties []models.Property) ([]byte, error) {
	if properties == nil {
		properties = []models.Property{}
	}
	return json.MarshalIndent(properties, "", "  ")
}

// renderPrint is a best-effort tabular rendering of a reduced column set.
func renderPrint(properties []models.Property) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPRICE\tCITY\tBEDS\tSTATUS")
	for i := range properties {
		p := &properties[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%d\t%s\n",
			p.ID,
			truncate(p.Title, 40),
			p.ListingType,
			formatFloat(p.Price.Amount),
			p.Price.Currency,
			p.Location.City,
			p.Bedrooms,
			p.Status,
		)
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
