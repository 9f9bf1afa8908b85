package common

import "time"

const (
	// NotAvailable is the value of any record field whose markup was not found.
	NotAvailable = "N/A"

	SUCCESS = "SUCCESS"
	SKIPPED = "SKIPPED"
	FAILED  = "FAILED"
	PARTIAL = "PARTIAL"

	DefaultDigestCap  = 20
	DefaultAlertDelay = 2 * time.Second

	ScreenerBaseURL          = "https://www.screener.in"
	ScreenerAnnualReportsURL = ScreenerBaseURL + "/annual-reports/"
	ScreenerRSIOversoldURL   = ScreenerBaseURL + "/screens/985942/rsi-oversold-stocks/"

	GoogleNewsRSSBaseURL = "https://news.google.com/rss"

	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:139.0) Gecko/20100101 Firefox/139.0"
)
