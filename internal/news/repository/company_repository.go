package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

const (
	companyNameColumn   = "Company Name"
	companySymbolColumn = "Symbol"
)

// CompanyRepository lists the companies whose news is tracked.
type CompanyRepository interface {
	List(ctx context.Context) ([]entity.Company, error)
}

type companyRepository struct {
	path string
	log  *logger.Logger
}

// NewCompanyRepository reads companies from a CSV file with "Company Name" and "Symbol"
// header columns.
func NewCompanyRepository(path string, log *logger.Logger) CompanyRepository {
	return &companyRepository{path: path, log: log}
}

func (r *companyRepository) List(ctx context.Context) ([]entity.Company, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open companies file %s: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("companies file %s is empty", r.path)
		}
		return nil, fmt.Errorf("failed to read companies header: %w", err)
	}

	nameIdx, symbolIdx := -1, -1
	for i, column := range header {
		switch strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")) {
		case companyNameColumn:
			nameIdx = i
		case companySymbolColumn:
			symbolIdx = i
		}
	}
	if nameIdx < 0 || symbolIdx < 0 {
		return nil, fmt.Errorf("companies file %s is missing the %q or %q column", r.path, companyNameColumn, companySymbolColumn)
	}

	var companies []entity.Company
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read companies file %s: %w", r.path, err)
		}
		if nameIdx >= len(row) || symbolIdx >= len(row) {
			r.log.WarnContext(ctx, "Skipping short companies row", logger.Field("row", row))
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		companies = append(companies, entity.Company{Name: name, Symbol: strings.TrimSpace(row[symbolIdx])})
	}

	r.log.InfoContext(ctx, "Read companies", logger.StringField("path", r.path), logger.IntField("count", len(companies)))
	return companies, nil
}
