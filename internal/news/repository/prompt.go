package repository

import (
	"fmt"
	"strings"
)

// NewsAnalysisInstruction is prepended to the collected news before analysis.
const NewsAnalysisInstruction = "Here is a list of news regarding stocks. Analyze all and find the best and worst news items that can move stock prices."

// NoNewsFallback replaces a missing or empty processed news file as the analysis input.
const NoNewsFallback = "No news titles available from the provided file."

const titleFilterInstruction = `You are an automated sentiment analysis and news filtering tool focused on brokerage-related market insights.

I will provide a plain .txt file containing a list of news headlines (one per line). Your task is to analyze each headline individually and:

Filter out irrelevant content (e.g., entertainment news, politics unrelated to markets, global stock updates with no direct India linkage).

Retain only headlines that contain market-relevant commentary or action from brokerages such as:

Buy/Sell/Hold recommendations

Target price changes

Earnings outlook or company-specific analysis

Sector outlooks or upgrades/downgrades

Macroeconomic views from brokerages (e.g., on inflation, GDP, interest rates)

Institutional flow or market strategy updates

Coverage initiations

Exclude any foreign stock views unless they are directly tied to Indian markets or sectors.

If multiple headlines have the same meaning from different sources, include only one representative version to avoid redundancy.

Your output should be a cleaned list of only the relevant brokerage-related headlines, with no greetings or summaries. The result will be used directly in an article reader pipeline.
example input:
Nomura upgrades ICICI Bank to 'Buy', raises target to ₹1,200
Shahrukh Khan launches new OTT platform
Jefferies maintains 'Hold' on Infosys, lowers target to ₹1,450
Mumbai rains cause traffic snarls in several areas
ICICI Direct sees 15% upside in L&T; retains 'Buy' rating
Nomura upgrades ICICI Bank to Buy, target ₹1,200 set

example output:
Nomura upgrades ICICI Bank to 'Buy', raises target to ₹1,200
Jefferies maintains 'Hold' on Infosys, lowers target to ₹1,450
ICICI Direct sees 15% upside in L&T; retains 'Buy' rating

so below is the content of the file you need to filter:

`

// BuildTitleFilterPrompt asks the model to keep only brokerage-related headlines.
func BuildTitleFilterPrompt(titles string) string {
	return titleFilterInstruction + strings.TrimSpace(titles)
}

// BuildTitleSummaryPrompt asks the model to search the web for title and summarize it.
func BuildTitleSummaryPrompt(title string) string {
	return fmt.Sprintf("Summarize the news article in detail by searching given title on web "+
		"and by reading some recent article based on website, title: %s", title)
}

// BuildNewsAnalysisPrompt prefixes the collected news with the analysis instruction.
func BuildNewsAnalysisPrompt(news string) string {
	return NewsAnalysisInstruction + "\n\n" + strings.TrimSpace(news)
}
