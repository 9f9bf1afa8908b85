package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/utils"
)

// Escape makes s safe inside Telegram HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Digest is the input of FormatDigest. Lines are already formatted and capped by the caller;
// Total is the full record count so the overflow note can be computed.
type Digest struct {
	Title string
	Noun  string
	Label string
	Date  time.Time
	Total int
	Lines []string
}

// FormatDigest formats a numbered run summary with an "... and N more" suffix when Lines
// holds fewer entries than Total.
func FormatDigest(d Digest) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("📊 <b>%s</b>\n", Escape(d.Title)))
	builder.WriteString(fmt.Sprintf("📅 Date: %s\n", utils.PrettyDate(d.Date)))
	builder.WriteString(fmt.Sprintf("🔢 %s: %d\n\n", d.Label, d.Total))

	for i, line := range d.Lines {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, line))
	}

	if more := d.Total - len(d.Lines); more > 0 {
		builder.WriteString(fmt.Sprintf("\n... and %d more %s", more, d.Noun))
	}

	return builder.String()
}

// FormatAnnualReportAlert formats a single annual report notification.
func FormatAnnualReportAlert(r entity.Record) string {
	var builder strings.Builder

	builder.WriteString("📄 <b>Annual Report Alert</b>\n\n")
	builder.WriteString(fmt.Sprintf("<b>Company:</b> %s\n", Escape(r.Name())))
	builder.WriteString(fmt.Sprintf("<b>Fiscal Year:</b> %s\n", Escape(r.Get(entity.FieldFiscalYear))))
	builder.WriteString(fmt.Sprintf("<b>Time Posted:</b> %s\n", Escape(r.Get(entity.FieldTimePosted))))
	builder.WriteString(fmt.Sprintf("<b>Market Cap:</b> %s\n", Escape(r.Get(entity.FieldMarketCap))))
	builder.WriteString(fmt.Sprintf("<b>Sales:</b> %s <b>(%s)</b>\n", Escape(r.Get(entity.FieldSales)), Escape(r.Get(entity.FieldSalesChange))))
	builder.WriteString(fmt.Sprintf("<b>Profit:</b> %s <b>(%s)</b>\n\n", Escape(r.Get(entity.FieldProfit)), Escape(r.Get(entity.FieldProfitChange))))
	builder.WriteString(fmt.Sprintf("<a href='%s'>View Annual Report PDF</a>\n", Escape(r.Get(entity.FieldPDFURL))))
	builder.WriteString(fmt.Sprintf("<a href='%s'>View Financial Results</a>", Escape(r.Get(entity.FieldResultsURL))))

	return builder.String()
}

// FormatRSIOversoldAlert formats a single RSI oversold notification.
func FormatRSIOversoldAlert(r entity.Record) string {
	var sb strings.Builder

	sb.WriteString("🔴 <b>RSI Oversold Alert</b>\n\n")
	sb.WriteString(fmt.Sprintf("<b>Company:</b> %s\n", Escape(r.Name())))
	sb.WriteString(fmt.Sprintf("<b>Rank:</b> #%s\n", Escape(r.Get(entity.FieldRank))))
	sb.WriteString(fmt.Sprintf("<b>Current Price:</b> ₹%s\n", Escape(r.Get(entity.FieldCurrentPrice))))
	sb.WriteString(fmt.Sprintf("<b>RSI:</b> %s\n", Escape(r.Get(entity.FieldRSI))))
	sb.WriteString(fmt.Sprintf("<b>Price Change:</b> %s%%\n", Escape(r.Get(entity.FieldPriceChange))))
	sb.WriteString(fmt.Sprintf("<b>52W High/Low:</b> ₹%s / ₹%s\n", Escape(r.Get(entity.FieldHigh52W)), Escape(r.Get(entity.FieldLow52W))))
	sb.WriteString(fmt.Sprintf("<b>PE Ratio:</b> %s\n", Escape(r.Get(entity.FieldPERatio))))
	sb.WriteString(fmt.Sprintf("<b>PB Ratio:</b> %s\n", Escape(r.Get(entity.FieldPBRatio))))
	sb.WriteString(fmt.Sprintf("<b>ROE:</b> %s%%\n", Escape(r.Get(entity.FieldROE))))
	sb.WriteString(fmt.Sprintf("<b>Market Cap:</b> ₹%s Cr\n", Escape(r.Get(entity.FieldMarketCap))))
	sb.WriteString(fmt.Sprintf("<b>Dividend Yield:</b> %s%%\n\n", Escape(r.Get(entity.FieldDividendYield))))
	sb.WriteString(fmt.Sprintf("<a href='%s'>View Company Details</a>", Escape(r.Get(entity.FieldCompanyURL))))

	return sb.String()
}
