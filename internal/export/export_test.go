package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-platform/internal/models"
)

func sampleProperties() []models.Property {
	return []models.Property{
		{
			ID:          "a1",
			Source:      models.SourceInternal,
			Title:       `Flat with "garden view", central`,
			Description: "Two floors,\nrecently renovated",
			ListingType: models.ListingRent,
			Status:      models.PropertyStatusOnline,
			Bedrooms:    2,
			Bathrooms:   1,
			Area:        61.5,
			Price:       models.Price{Amount: 1250.5, Currency: "GBP", Period: models.PeriodMonthly},
			Location:    models.Location{AddressLine1: "3 King St", City: "Leeds", Postcode: "LS1 2HQ", Country: "United Kingdom"},
			Media:       models.Media{Images: []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}},
			Agent:       models.Agent{Name: "J. Carter", Email: "j.carter@example.com"},
			Analytics:   models.Analytics{Views: 17},
			CreatedAt:   time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:          "a2",
			Source:      models.SourceExternal,
			Title:       "Detached house",
			ListingType: models.ListingSale,
			Status:      models.PropertyStatusActive,
			Bedrooms:    4,
			Price:       models.Price{Amount: 300000, Currency: "GBP", Period: models.PeriodSale},
			ExternalRef: "49811237",
			CreatedAt:   time.Date(2026, 2, 15, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"print", FormatPrint, false},
		{"pdf", FormatPrint, false},
		{"xml", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(FormatCSV, sampleProperties())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, "a1", row[0])
	assert.Equal(t, "internal", row[1])
	// Embedded quotes and newlines survive the round trip.
	assert.Equal(t, `Flat with "garden view", central`, row[2])
	assert.Equal(t, "Two floors,\nrecently renovated", row[3])
	assert.Equal(t, "1250.5", row[4])
	assert.Equal(t, "monthly", row[6])
	assert.Equal(t, "https://img.example.com/1.jpg|https://img.example.com/2.jpg", row[17])
	assert.Equal(t, "2026-02-14T09:30:00Z", row[25])

	assert.Equal(t, "49811237", records[2][24])
}

func TestRenderCSVEmptyInput(t *testing.T) {
	data, err := Render(FormatCSV, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1) // header only
}

func TestRenderJSONRoundTrip(t *testing.T) {
	data, err := Render(FormatJSON, sampleProperties())
	require.NoError(t, err)

	var decoded []models.Property
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a1", decoded[0].ID)
	assert.Equal(t, models.ListingRent, decoded[0].ListingType)
	assert.Equal(t, 1250.5, decoded[0].Price.Amount)
}

func TestRenderJSONNilIsEmptyArray(t *testing.T) {
	data, err := Render(FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRenderPrint(t *testing.T) {
	data, err := Render(FormatPrint, sampleProperties())
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "a1")
	assert.Contains(t, lines[2], "Detached house")
}

func TestRenderPrintTruncatesLongTitlesOnRuneBoundaries(t *testing.T) {
	props := sampleProperties()
	props[0].Title = strings.Repeat("渋谷区の広いマンション", 8)

	data, err := Render(FormatPrint, props)
	require.NoError(t, err)

	assert.True(t, utf8.Valid(data))
	assert.Contains(t, string(data), "…")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))

	got := truncate("日本語のタイトルです", 5)
	assert.Equal(t, "日本語の…", got)
	assert.True(t, utf8.ValidString(got))
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(Format("yaml"), sampleProperties())
	assert.Error(t, err)
}
