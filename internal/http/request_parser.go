// Package http exposes the donor tracking services as a JSON API.
//
// This file holds the query-string parsers shared by the list handlers.
// Each returns an error naming the offending parameter; handlers turn it
// into a 422.
package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

// ParsePage reads skip and limit. Missing values fall back to skip 0 and
// storage.DefaultLimit; limits above storage.MaxLimit are capped.
func ParsePage(c *gin.Context) (storage.Page, error) {
	page := storage.Page{Limit: storage.DefaultLimit}

	if v := strings.TrimSpace(c.Query("skip")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return storage.Page{}, errors.New("skip must be a non-negative integer")
		}
		page.Skip = n
	}
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return storage.Page{}, errors.New("limit must be a positive integer")
		}
		page.Limit = min(n, storage.MaxLimit)
	}
	return page, nil
}

// QueryInt64 returns nil when the parameter is absent.
func QueryInt64(c *gin.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

// QueryDate parses a YYYY-MM-DD parameter; nil when absent.
func QueryDate(c *gin.Context, name string) (*core.Date, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

// QueryBool accepts the forms strconv.ParseBool does; nil when absent.
func QueryBool(c *gin.Context, name string) (*bool, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}

// QueryYear reads the required year parameter of receipt generation.
func QueryYear(c *gin.Context) (int, error) {
	v := strings.TrimSpace(c.Query("year"))
	if v == "" {
		return 0, errors.New("year is required")
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("year must be an integer")
	}
	return year, nil
}

// ParseID reads the :id path parameter.
func ParseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("id must be an integer")
	}
	return id, nil
}

func donorFilter(c *gin.Context) (storage.DonorFilter, error) {
	return storage.DonorFilter{
		DonorType: strings.TrimSpace(c.Query("donor_type")),
		Search:    strings.TrimSpace(c.Query("search")),
	}, nil
}

func programFilter(today func() core.Date) func(*gin.Context) (storage.ProgramFilter, error) {
	return func(c *gin.Context) (storage.ProgramFilter, error) {
		f := storage.ProgramFilter{Search: strings.TrimSpace(c.Query("search"))}
		active, err := QueryBool(c, "active_only")
		if err != nil {
			return f, err
		}
		if active != nil && *active {
			day := today()
			f.ActiveOn = &day
		}
		return f, nil
	}
}

func donationFilter(c *gin.Context) (f storage.DonationFilter, err error) {
	if f.DonorID, err = QueryInt64(c, "donor_id"); err != nil {
		return f, err
	}
	if f.ProgramID, err = QueryInt64(c, "program_id"); err != nil {
		return f, err
	}
	if f.StartDate, err = QueryDate(c, "start_date"); err != nil {
		return f, err
	}
	f.EndDate, err = QueryDate(c, "end_date")
	return f, err
}

func pledgeFilter(c *gin.Context) (f storage.PledgeFilter, err error) {
	if f.DonorID, err = QueryInt64(c, "donor_id"); err != nil {
		return f, err
	}
	if f.ProgramID, err = QueryInt64(c, "program_id"); err != nil {
		return f, err
	}
	f.Status = strings.TrimSpace(c.Query("status"))
	return f, nil
}

func taxReceiptFilter(c *gin.Context) (f storage.TaxReceiptFilter, err error) {
	if f.DonationID, err = QueryInt64(c, "donation_id"); err != nil {
		return f, err
	}
	if f.GeneratedAfter, err = QueryDate(c, "generated_after"); err != nil {
		return f, err
	}
	if f.GeneratedBefore, err = QueryDate(c, "generated_before"); err != nil {
		return f, err
	}
	f.Sent, err = QueryBool(c, "sent")
	return f, err
}

func thankYouNoteFilter(c *gin.Context) (f storage.ThankYouNoteFilter, err error) {
	if f.DonorID, err = QueryInt64(c, "donor_id"); err != nil {
		return f, err
	}
	if f.DonationID, err = QueryInt64(c, "donation_id"); err != nil {
		return f, err
	}
	f.Method = strings.TrimSpace(c.Query("method"))
	f.Sent, err = QueryBool(c, "sent")
	return f, err
}
