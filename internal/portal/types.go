package portal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DisplayField is a portal value that is either a bare scalar or an object
// such as {"id": 3, "code": "CSE", "name": "Computer Science"}.
// The zero value is an absent field.
type DisplayField struct {
	Scalar  string
	Labeled *Labeled
}

// Labeled is the object form of a DisplayField.
type Labeled struct {
	Name  string
	Code  string
	Title string
	ID    string
}

// UnmarshalJSON accepts strings, numbers, bools, objects and null.
// Arrays and malformed values decode to the zero field instead of failing
// the whole response.
func (f *DisplayField) UnmarshalJSON(data []byte) error {
	*f = DisplayField{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var raw struct {
			Name  json.RawMessage `json:"name"`
			Code  json.RawMessage `json:"code"`
			Title json.RawMessage `json:"title"`
			ID    json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		f.Labeled = &Labeled{
			Name:  scalarText(raw.Name),
			Code:  scalarText(raw.Code),
			Title: scalarText(raw.Title),
			ID:    scalarText(raw.ID),
		}
	default:
		f.Scalar = scalarText(data)
	}
	return nil
}

// DisplayValue resolves the field to text: a scalar as-is, an object by the
// first non-empty of name, code, title, id.
func (f DisplayField) DisplayValue() string {
	if f.Labeled == nil {
		return f.Scalar
	}
	for _, v := range []string{f.Labeled.Name, f.Labeled.Code, f.Labeled.Title, f.Labeled.ID} {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsZero reports whether the field resolves to nothing.
func (f DisplayField) IsZero() bool {
	return f.DisplayValue() == ""
}

// scalarText renders a JSON string, number or bool as text; anything else is "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return ""
		}
		return strconv.FormatBool(b)
	case 'n', '{', '[':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

// Number is a defensively decoded numeric field. It accepts 59.57, "59.57",
// "59.57%" and {"value": 59.57} / {"percentage": 59.57}. Anything else is 0.
type Number float64

// UnmarshalJSON never fails; unparseable input yields 0.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(parseNumber(data))
	return nil
}

// Int truncates toward zero, clamping negatives to 0.
func (n Number) Int() int {
	if n < 0 {
		return 0
	}
	return int(n)
}

func parseNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
		return 0
	}

	var obj struct {
		Value      json.RawMessage `json:"value"`
		Percentage json.RawMessage `json:"percentage"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if len(obj.Value) > 0 {
			return parseNumber(obj.Value)
		}
		if len(obj.Percentage) > 0 {
			return parseNumber(obj.Percentage)
		}
	}
	return 0
}

// envelope is the {"Error": ..., "payload": ...} wrapper some endpoints use.
type envelope struct {
	Error   json.RawMessage `json:"Error"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload"`
	Data    json.RawMessage `json:"data"`
}

// failed reports whether the envelope carries Error: true (or "true").
func (e envelope) failed() bool {
	switch strings.ToLower(strings.Trim(string(bytes.TrimSpace(e.Error)), `"`)) {
	case "true", "1":
		return true
	}
	return false
}

// ProfileResponse is the student record inside the /profile response.
type ProfileResponse struct {
	Name         DisplayField `json:"name"`
	Student      *nestedName  `json:"student"`
	Htno         DisplayField `json:"htno"`
	HallTicketNo DisplayField `json:"hallTicketNo"`
	RollNo       DisplayField `json:"rollNo"`
	StudentID    DisplayField `json:"studentId"`
	Course       DisplayField `json:"course"`
	Branch       DisplayField `json:"branch"`
	Section      DisplayField `json:"section"`
	Year         DisplayField `json:"year"`
}

type nestedName struct {
	Name DisplayField `json:"name"`
}

// OverallResponse is the payload of the /overall response.
type OverallResponse struct {
	OverallAttendance Number `json:"overallAttendance"`
	AttendanceDetails []struct {
		Date    DisplayField `json:"date"`
		Periods []struct {
			PeriodNo Number          `json:"period_no"`
			Status   json.RawMessage `json:"status"`
		} `json:"periods"`
	} `json:"attendanceDetails"`
}

// SubjectResponse is one entry of the /subjects array.
type SubjectResponse struct {
	SubjectName          DisplayField `json:"subjectName"`
	SubjectType          DisplayField `json:"subjectType"`
	TotalSessions        Number       `json:"totalSessions"`
	AttendedSessions     Number       `json:"attendedSessions"`
	AttendancePercentage Number       `json:"attendancePercentage"`
}

// TimetableDayResponse is one weekday of the /timetable array. Each period is
// an object like {"Period 1": "DBMS", "faculty": "Dr. Rao"}.
type TimetableDayResponse struct {
	DayName DisplayField                 `json:"dayname"`
	Periods []map[string]json.RawMessage `json:"periods"`
}
