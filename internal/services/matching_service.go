package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/justsurfingit/job-portal/internal/models"
	"gorm.io/gorm"
)

// Names shorter than this many characters match almost any text, e.g. "Go" or "楽天".
const minMatchLength = 3

// CompanyMatcher links a company mentioned in a pasted posting to a registered company.
type CompanyMatcher struct {
	DB *gorm.DB
}

func NewCompanyMatcher(db *gorm.DB) *CompanyMatcher {
	return &CompanyMatcher{DB: db}
}

// Match finds the company whose name appears in name, or whose website is on
// the same host as sourceURL. Name matches win over host matches.
func (m *CompanyMatcher) Match(ctx context.Context, name, sourceURL string) (*models.Company, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	host := hostOf(sourceURL)
	if name == "" && host == "" {
		return nil, fmt.Errorf("company %w", ErrNotFound)
	}

	var companies []models.Company
	if err := m.DB.WithContext(ctx).Order("id").Find(&companies).Error; err != nil {
		return nil, err
	}

	var byHost *models.Company
	for i := range companies {
		c := &companies[i]
		companyName := strings.ToLower(strings.TrimSpace(c.Name))
		if utf8.RuneCountInString(companyName) >= minMatchLength && name != "" && strings.Contains(name, companyName) {
			return c, nil
		}
		// "careers.acme.co.jp" matches a website of "https://www.acme.co.jp"
		if byHost == nil && host != "" {
			if site := hostOf(c.Website); site != "" && (host == site || strings.HasSuffix(host, "."+site)) {
				byHost = c
			}
		}
	}
	if byHost != nil {
		return byHost, nil
	}
	return nil, fmt.Errorf("company %w", ErrNotFound)
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
