package dbx

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLite has no timestamp type; depending on how a row was produced the
// driver hands back time.Time or one of these text layouts.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
}

type timeScanner struct {
	dst *time.Time
}

// ScanTime returns a sql.Scanner that stores a timestamp column into dst.
// NULL leaves dst zero.
func ScanTime(dst *time.Time) sql.Scanner {
	return timeScanner{dst: dst}
}

func (s timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = time.Time{}
		return nil
	case time.Time:
		*s.dst = v
		return nil
	case int64:
		*s.dst = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (s timeScanner) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.dst = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", v)
}
