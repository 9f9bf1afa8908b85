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

const (
	annualReportItemSelector    = "body > main > div:nth-of-type(2) > div:nth-of-type(2) > ul > li"
	annualReportNameSelector    = `strong[class="font-weight-500"]`
	annualReportYearSelector    = `span[class="sub font-size-14"]`
	annualReportDetailsSelector = `div[class="font-size-12 sub"]`

	detailSeparator = "·"
)

var annualReportFields = []string{
	entity.FieldCompany,
	entity.FieldFiscalYear,
	entity.FieldPDFURL,
	entity.FieldTimePosted,
	entity.FieldMarketCap,
	entity.FieldSales,
	entity.FieldSalesChange,
	entity.FieldProfit,
	entity.FieldProfitChange,
	entity.FieldResultsURL,
}

// AnnualReportsStrategy reads the screener.in annual reports feed.
type AnnualReportsStrategy struct {
	baseURL string
}

// NewAnnualReportsStrategy creates a new AnnualReportsStrategy. Relative links are resolved
// against baseURL.
func NewAnnualReportsStrategy(baseURL string) RecordSource {
	return &AnnualReportsStrategy{baseURL: baseURL}
}

// GetType returns the source this strategy handles.
func (s *AnnualReportsStrategy) GetType() entity.SourceType {
	return entity.SourceTypeAnnualReports
}

// Extract yields one result per list item of the reports feed.
func (s *AnnualReportsStrategy) Extract(body []byte) (iter.Seq[dto.ItemResult], error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return eachItem(doc.Find(annualReportItemSelector), s.parseItem), nil
}

func (s *AnnualReportsStrategy) parseItem(item *goquery.Selection) dto.ItemResult {
	link := item.Find("a").First()
	if link.Length() == 0 {
		return skipped("missing report link")
	}
	details := item.Find(annualReportDetailsSelector).First()
	if details.Length() == 0 {
		return skipped("missing details block")
	}

	record := entity.NewRecord(s.GetType(), annualReportFields...)
	record.Set(entity.FieldCompany, firstText(link.Find(annualReportNameSelector)))
	record.Set(entity.FieldFiscalYear, firstText(link.Find(annualReportYearSelector)))
	if href, ok := link.Attr("href"); ok && href != "" {
		record.Set(entity.FieldPDFURL, href)
	}

	segments := strings.Split(strings.TrimSpace(details.Text()), detailSeparator)
	if posted := strings.TrimSpace(segments[0]); posted != "" {
		record.Set(entity.FieldTimePosted, posted)
	}

	// Segments are matched by keyword, so a missing or reordered segment only
	// leaves its own fields at N/A.
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		switch {
		case strings.Contains(segment, "Market Cap"):
			if _, value, ok := strings.Cut(segment, ":"); ok {
				record.Set(entity.FieldMarketCap, strings.TrimSpace(value))
			}
		case strings.Contains(segment, "Sales"):
			setFigure(record, segment, "Sales", entity.FieldSales, entity.FieldSalesChange)
		case strings.Contains(segment, "Profit"):
			setFigure(record, segment, "Profit", entity.FieldProfit, entity.FieldProfitChange)
		}
	}

	results := details.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.Contains(a.Text(), "Results")
	}).First()
	if href, ok := results.Attr("href"); ok && href != "" {
		record.Set(entity.FieldResultsURL, absoluteURL(s.baseURL, href))
	}

	return success(record)
}

// setFigure reads "Sales ₹ 500 Cr ⇡ 12%" style segments into a value ("₹ 500 Cr") and a
// change ("⇡ 12%") field.
func setFigure(record entity.Record, segment, label, valueKey, changeKey string) {
	if before, _, ok := strings.Cut(segment, "Cr"); ok {
		if _, value, found := strings.Cut(before, label); found {
			before = value
		}
		record.Set(valueKey, strings.TrimSpace(before)+" Cr")
	}
	if idx := strings.IndexAny(segment, "⇡⇣"); idx >= 0 {
		record.Set(changeKey, strings.TrimSpace(segment[idx:]))
	}
}

// FormatAlert renders the per-report message.
func (s *AnnualReportsStrategy) FormatAlert(record entity.Record) string {
	return telegram.FormatAnnualReportAlert(record)
}

// FormatDigest renders the run summary listing at most limit reports.
func (s *AnnualReportsStrategy) FormatDigest(records []entity.Record, date time.Time, limit int) string {
	lines := make([]string, 0, min(len(records), limit))
	for _, r := range records[:min(len(records), limit)] {
		lines = append(lines, fmt.Sprintf("<b>%s</b> - %s, Market Cap: %s",
			telegram.Escape(r.Name()), telegram.Escape(r.Get(entity.FieldFiscalYear)), telegram.Escape(r.Get(entity.FieldMarketCap))))
	}
	return telegram.FormatDigest(telegram.Digest{
		Title: "Annual Reports Summary",
		Noun:  "reports",
		Label: "Total Reports",
		Date:  date,
		Total: len(records),
		Lines: lines,
	})
}
