package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TimestampLayout - формат saved_at. Сортируется как строка и совместим
// с CURRENT_TIMESTAMP, которым SQLite заполнял старые строки.
const TimestampLayout = "2006-01-02 15:04:05.000"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// Timestamp - время в UTC: текстом в SQLite, нативным datetime в остальных базах.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t *Timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("timestamp: unsupported type %T", value)
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.Time.UTC().Format(TimestampLayout), nil
}

// GormDBDataType выбирает тип колонки для AutoMigrate по диалекту.
func (Timestamp) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "datetime(3)"
	case "postgres":
		return "timestamp(3)"
	default:
		return "text"
	}
}
