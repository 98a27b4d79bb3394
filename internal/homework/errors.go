package homework

import (
	"errors"
	"fmt"
)

// SchemaKind identifies which part of the response contract was violated.
type SchemaKind string

const (
	KindNotObject          SchemaKind = "not_object"
	KindHomeworksMissing   SchemaKind = "homeworks_missing"
	KindHomeworksNotList   SchemaKind = "homeworks_not_list"
	KindCurrentDateMissing SchemaKind = "current_date_missing"
	KindCurrentDateInvalid SchemaKind = "current_date_invalid"
	KindEntryNotObject     SchemaKind = "entry_not_object"
	KindNameMissing        SchemaKind = "homework_name_missing"
	KindNameInvalid        SchemaKind = "homework_name_invalid"
	KindStatusMissing      SchemaKind = "status_missing"
	KindStatusInvalid      SchemaKind = "status_invalid"
	KindUnknownStatus      SchemaKind = "unknown_status"
)

// Sentinels for errors.Is matching on a SchemaError's kind.
var (
	ErrNotObject          = errors.New("response is not an object")
	ErrHomeworksMissing   = errors.New("homeworks field missing")
	ErrHomeworksNotList   = errors.New("homeworks is not a list")
	ErrCurrentDateMissing = errors.New("current_date field missing")
	ErrCurrentDateInvalid = errors.New("current_date is not an integer")
	ErrEntryNotObject     = errors.New("homework entry is not an object")
	ErrNameMissing        = errors.New("homework_name field missing")
	ErrNameInvalid        = errors.New("homework_name is not a string")
	ErrStatusMissing      = errors.New("status field missing")
	ErrStatusInvalid      = errors.New("status is not a string")
	ErrUnknownStatus      = errors.New("unknown homework status")
)

var kindSentinels = map[SchemaKind]error{
	KindNotObject:          ErrNotObject,
	KindHomeworksMissing:   ErrHomeworksMissing,
	KindHomeworksNotList:   ErrHomeworksNotList,
	KindCurrentDateMissing: ErrCurrentDateMissing,
	KindCurrentDateInvalid: ErrCurrentDateInvalid,
	KindEntryNotObject:     ErrEntryNotObject,
	KindNameMissing:        ErrNameMissing,
	KindNameInvalid:        ErrNameInvalid,
	KindStatusMissing:      ErrStatusMissing,
	KindStatusInvalid:      ErrStatusInvalid,
	KindUnknownStatus:      ErrUnknownStatus,
}

// SchemaError reports a response that violates the API contract.
type SchemaError struct {
	Kind  SchemaKind
	Field string
	// Index is the homeworks entry the error refers to, or -1 for top-level fields.
	Index int
	// Value is the offending value, when there is one (e.g. the unknown status).
	Value string
}

func (e *SchemaError) Error() string {
	msg := "invalid response"
	if s, ok := kindSentinels[e.Kind]; ok {
		msg = s.Error()
	}
	loc := e.Field
	if e.Index >= 0 {
		loc = fmt.Sprintf("homeworks[%d].%s", e.Index, e.Field)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %s=%q", msg, loc, e.Value)
	}
	if loc != "" {
		return fmt.Sprintf("%s (%s)", msg, loc)
	}
	return msg
}

// Is matches the sentinel of the error's kind.
func (e *SchemaError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func topLevelError(kind SchemaKind, field string) *SchemaError {
	return &SchemaError{Kind: kind, Field: field, Index: -1}
}
