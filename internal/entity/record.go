package entity

import "github.com/reeeportnewsss/nww/pkg/common"

// SourceType identifies which screener page a record came from.
type SourceType string

const (
	SourceTypeAnnualReports SourceType = "annual_reports"
	SourceTypeRSIOversold   SourceType = "rsi_oversold"
)

// Record field keys.
const (
	FieldCompany = "company"

	// annual reports
	FieldFiscalYear   = "fiscal_year"
	FieldPDFURL       = "pdf_url"
	FieldTimePosted   = "time_posted"
	FieldMarketCap    = "market_cap"
	FieldSales        = "sales"
	FieldSalesChange  = "sales_change"
	FieldProfit       = "profit"
	FieldProfitChange = "profit_change"
	FieldResultsURL   = "results_url"

	// RSI oversold screen
	FieldRank          = "rank"
	FieldCompanyURL    = "company_url"
	FieldCurrentPrice  = "current_price"
	FieldHigh52W       = "high_52w"
	FieldLow52W        = "low_52w"
	FieldDividendYield = "dividend_yield"
	FieldPBRatio       = "pb_ratio"
	FieldPERatio       = "pe_ratio"
	FieldROE           = "roe"
	FieldRSI           = "rsi"
	FieldPriceChange   = "price_change"
)

// Record is one entity parsed from a screener page. Identity is empty until the
// pipeline assigns it.
type Record struct {
	Source   SourceType        `json:"source"`
	Fields   map[string]string `json:"fields"`
	Identity string            `json:"identity"`
}

// NewRecord returns a record with every key in keys preset to N/A.
func NewRecord(source SourceType, keys ...string) Record {
	fields := make(map[string]string, len(keys))
	for _, k := range keys {
		fields[k] = common.NotAvailable
	}
	return Record{Source: source, Fields: fields}
}

// Get returns the value for key or N/A.
func (r Record) Get(key string) string {
	if v, ok := r.Fields[key]; ok {
		return v
	}
	return common.NotAvailable
}

// Set stores value under key.
func (r Record) Set(key, value string) {
	r.Fields[key] = value
}

// Name is the display name used for identity and messages.
func (r Record) Name() string {
	return r.Get(FieldCompany)
}

// SentinelCount returns how many fields hold N/A.
func (r Record) SentinelCount() int {
	n := 0
	for _, v := range r.Fields {
		if v == common.NotAvailable {
			n++
		}
	}
	return n
}
