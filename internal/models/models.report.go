// FilePath: server/clima/internal/models/models.report.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Condition is the overall classification of a daily report
type Condition string

const (
	ConditionOptimal  Condition = "Optimal"
	ConditionStable   Condition = "Stable"
	ConditionVariable Condition = "Variable"
	ConditionAlert    Condition = "Alert"
	ConditionCritical Condition = "Critical"
)

var conditionAliases = map[string]Condition{
	"optimal":  ConditionOptimal,
	"optimo":   ConditionOptimal,
	"stable":   ConditionStable,
	"estable":  ConditionStable,
	"variable": ConditionVariable,
	"alert":    ConditionAlert,
	"alerta":   ConditionAlert,
	"critical": ConditionCritical,
	"critico":  ConditionCritical,
}

var accentFolder = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

// ParseCondition maps an English or Spanish condition name onto the enumeration.
// Matching ignores case and accents.
func ParseCondition(s string) (Condition, error) {
	key := accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
	if c, ok := conditionAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

// Document is a free-form JSON object stored as-is
type Document map[string]interface{}

// Value implements the driver.Valuer interface. The document is sent as text
// so it lands in json/jsonb and TEXT columns alike.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (d *Document) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Document", value)
	}
	return json.Unmarshal(data, d)
}

// Report is the stored analysis of one calendar day
type Report struct {
	ID        int64     `json:"id" db:"id"`
	Date      string    `json:"date" db:"report_date"`
	Condition Condition `json:"condition" db:"overall_condition"`
	Payload   Document  `json:"payload" db:"payload"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
