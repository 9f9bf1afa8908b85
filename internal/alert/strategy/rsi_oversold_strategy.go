package strategy

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/telegram"
)

const rsiRowSelector = "table tbody tr"

// rsiColumns maps table columns, from the third onwards, to record fields.
var rsiColumns = []string{
	entity.FieldCurrentPrice,
	entity.FieldHigh52W,
	entity.FieldLow52W,
	entity.FieldDividendYield,
	entity.FieldPBRatio,
	entity.FieldMarketCap,
	entity.FieldPERatio,
	entity.FieldROE,
	entity.FieldRSI,
	entity.FieldPriceChange,
}

// RSIOversoldStrategy reads the screener.in "RSI oversold stocks" screen.
type RSIOversoldStrategy struct {
	baseURL string
}

// NewRSIOversoldStrategy creates a new RSIOversoldStrategy.
func NewRSIOversoldStrategy(baseURL string) RecordSource {
	return &RSIOversoldStrategy{baseURL: baseURL}
}

func (s *RSIOversoldStrategy) GetType() entity.SourceType {
	return entity.SourceTypeRSIOversold
}

// Extract yields one result per table body row.
func (s *RSIOversoldStrategy) Extract(body []byte) (iter.Seq[dto.ItemResult], error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return eachItem(doc.Find(rsiRowSelector), s.parseRow), nil
}

func (s *RSIOversoldStrategy) parseRow(row *goquery.Selection) dto.ItemResult {
	if row.Find("th").Length() > 0 {
		return skipped("header row")
	}
	cells := row.Find("td")
	if cells.Length() < 2 {
		return skipped("too few columns")
	}
	link := cells.Eq(1).Find("a").First()
	if link.Length() == 0 {
		return skipped("missing company link")
	}

	keys := append([]string{entity.FieldRank, entity.FieldCompany, entity.FieldCompanyURL}, rsiColumns...)
	record := entity.NewRecord(s.GetType(), keys...)

	record.Set(entity.FieldRank, strings.ReplaceAll(strings.TrimSpace(cells.Eq(0).Text()), ".", ""))
	record.Set(entity.FieldCompany, strings.TrimSpace(link.Text()))
	if href, ok := link.Attr("href"); ok && href != "" {
		record.Set(entity.FieldCompanyURL, absoluteURL(s.baseURL, href))
	}

	for i, key := range rsiColumns {
		if cell := cells.Eq(i + 2); cell.Length() > 0 {
			record.Set(key, strings.TrimSpace(cell.Text()))
		}
	}

	return success(record)
}

func (s *RSIOversoldStrategy) FormatAlert(record entity.Record) string {
	return telegram.FormatRSIOversoldAlert(record)
}

func (s *RSIOversoldStrategy) FormatDigest(records []entity.Record, date time.Time, limit int) string {
	lines := make([]string, 0, min(len(records), limit))
	for _, r := range records[:min(len(records), limit)] {
		lines = append(lines, fmt.Sprintf("<b>%s</b> - RSI: %s, Price: ₹%s",
			telegram.Escape(r.Name()), telegram.Escape(r.Get(entity.FieldRSI)), telegram.Escape(r.Get(entity.FieldCurrentPrice))))
	}
	return telegram.FormatDigest(telegram.Digest{
		Title: "RSI Oversold Stocks Summary",
		Noun:  "stocks",
		Label: "Total Stocks",
		Date:  date,
		Total: len(records),
		Lines: lines,
	})
}
