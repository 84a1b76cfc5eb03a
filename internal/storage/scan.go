package storage

import (
	"database/sql"
	"fmt"
	"time"

	"donortrack/internal/core"
)

func notFound(kind string, id int64) error {
	return core.NotFound(kind, id)
}

// dateCol scans DATE columns. SQLite hands back text (or a parsed time when
// the column is declared DATE), PostgreSQL a time.Time.
type dateCol struct {
	Date  core.Date
	Valid bool
}

func (c *dateCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Valid = false
		return nil
	case time.Time:
		c.Date, c.Valid = core.DateOf(v), true
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (c *dateCol) parse(s string) error {
	if len(s) < len(core.DateLayout) {
		return fmt.Errorf("scan date: %q", s)
	}
	d, err := core.ParseDate(s[:len(core.DateLayout)])
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	c.Date, c.Valid = d, true
	return nil
}

func (c dateCol) Ptr() *core.Date {
	if !c.Valid {
		return nil
	}
	d := c.Date
	return &d
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	core.DateLayout,
}

// timeCol scans created_at/updated_at.
type timeCol struct {
	Time time.Time
}

func (c *timeCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Time = time.Time{}
		return nil
	case time.Time:
		c.Time = v.UTC()
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (c *timeCol) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			c.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: %q", s)
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func moneyPtr(n sql.NullInt64) *core.Money {
	if !n.Valid {
		return nil
	}
	return &core.Money{Cents: n.Int64}
}

// Argument helpers convert domain values into plain driver values so both
// drivers bind them the same way.

func dateArg(d core.Date) any {
	return d.String()
}

func nullDateArg(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullMoneyArg(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func nullInt64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullStringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
