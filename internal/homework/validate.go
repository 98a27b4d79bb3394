package homework

import (
	"encoding/json"
	"math"
)

const (
	fieldHomeworks   = "homeworks"
	fieldCurrentDate = "current_date"
	fieldName        = "homework_name"
	fieldStatus      = "status"
)

// Validate enforces the response contract on a decoded JSON value and returns
// a typed PollResult. Checks run in a fixed order and the first violation wins:
// top-level object, homeworks (present, list), current_date (present, integer),
// then every entry (object, homework_name, status, known status).
//
// An empty homeworks list is valid.
func Validate(raw any) (PollResult, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return PollResult{}, topLevelError(KindNotObject, "")
	}

	hwRaw, ok := obj[fieldHomeworks]
	if !ok {
		return PollResult{}, topLevelError(KindHomeworksMissing, fieldHomeworks)
	}
	list, ok := hwRaw.([]any)
	if !ok {
		return PollResult{}, topLevelError(KindHomeworksNotList, fieldHomeworks)
	}

	dateRaw, ok := obj[fieldCurrentDate]
	if !ok {
		return PollResult{}, topLevelError(KindCurrentDateMissing, fieldCurrentDate)
	}
	serverTime, ok := asInt64(dateRaw)
	if !ok {
		return PollResult{}, topLevelError(KindCurrentDateInvalid, fieldCurrentDate)
	}

	subs := make([]Submission, 0, len(list))
	for i, item := range list {
		s, err := validateEntry(i, item)
		if err != nil {
			return PollResult{}, err
		}
		subs = append(subs, s)
	}
	return PollResult{Submissions: subs, ServerTime: serverTime}, nil
}

func validateEntry(i int, item any) (Submission, error) {
	entry, ok := item.(map[string]any)
	if !ok {
		return Submission{}, &SchemaError{Kind: KindEntryNotObject, Index: i}
	}

	nameRaw, ok := entry[fieldName]
	if !ok {
		return Submission{}, &SchemaError{Kind: KindNameMissing, Field: fieldName, Index: i}
	}
	name, ok := nameRaw.(string)
	if !ok {
		return Submission{}, &SchemaError{Kind: KindNameInvalid, Field: fieldName, Index: i}
	}

	statusRaw, ok := entry[fieldStatus]
	if !ok {
		return Submission{}, &SchemaError{Kind: KindStatusMissing, Field: fieldStatus, Index: i}
	}
	status, ok := statusRaw.(string)
	if !ok {
		return Submission{}, &SchemaError{Kind: KindStatusInvalid, Field: fieldStatus, Index: i}
	}
	if !Status(status).Known() {
		return Submission{}, &SchemaError{Kind: KindUnknownStatus, Field: fieldStatus, Index: i, Value: status}
	}
	return Submission{Name: name, Status: Status(status)}, nil
}

// asInt64 accepts the integer representations a JSON decoder can produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
