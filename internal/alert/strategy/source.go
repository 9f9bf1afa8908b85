package strategy

import (
	"bytes"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/utils"
)

// RecordSource knows one screener page layout: how to pull records out of it and how
// to word the messages for them.
type RecordSource interface {
	GetType() entity.SourceType
	// Extract parses body and returns a lazy, single-use sequence of per-item results.
	// The error is reserved for a document that cannot be parsed at all.
	Extract(body []byte) (iter.Seq[dto.ItemResult], error)
	FormatAlert(record entity.Record) string
	FormatDigest(records []entity.Record, date time.Time, limit int) string
}

func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html document: %w", err)
	}
	return doc, nil
}

// eachItem turns a selection into a sequence of item results. A panic while parsing one
// item becomes a FAILED result for that item only. The sequence can be ranged over once.
func eachItem(items *goquery.Selection, parse func(item *goquery.Selection) dto.ItemResult) iter.Seq[dto.ItemResult] {
	consumed := false
	return func(yield func(dto.ItemResult) bool) {
		if consumed {
			return
		}
		consumed = true

		for i := 0; i < items.Length(); i++ {
			item := items.Eq(i)

			var result dto.ItemResult
			err := utils.SafeRun(func() error {
				result = parse(item)
				return result.Err
			})
			if err != nil {
				result = dto.ItemResult{Status: common.FAILED, Err: err}
			}
			result.Index = i

			if !yield(result) {
				return
			}
		}
	}
}

func success(record entity.Record) dto.ItemResult {
	return dto.ItemResult{Status: common.SUCCESS, Record: record}
}

func skipped(reason string) dto.ItemResult {
	return dto.ItemResult{Status: common.SKIPPED, Reason: reason}
}

// firstText returns the trimmed text of the first node in sel, or N/A when sel is empty.
func firstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return common.NotAvailable
	}
	return strings.TrimSpace(sel.First().Text())
}

// absoluteURL joins a site-relative href onto base.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
