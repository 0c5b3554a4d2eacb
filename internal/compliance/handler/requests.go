package handler

import (
	"reflect"
	"strings"
)

type validateRequest struct {
	RuleType        string `json:"rule_type"`
	TargetType      string `json:"target_type"`
	TargetID        string `json:"target_id"`
	Content         string `json:"content"`
	RequestedBy     string `json:"requested_by"`
	RequestedByRole string `json:"requested_by_role"`
}

type reviewRequest struct {
	Status       string `json:"status"`
	ReviewerID   string `json:"reviewer_id"`
	ReviewerRole string `json:"reviewer_role"`
	Notes        string `json:"notes"`
}

type escalateRequest struct {
	EscalatedTo     string `json:"escalated_to"`
	RequestedBy     string `json:"requested_by"`
	RequestedByRole string `json:"requested_by_role"`
}

// sanitize trims whitespace from all string fields in a struct.
func sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.CanSet() && field.Kind() == reflect.String {
			field.SetString(strings.TrimSpace(field.String()))
		}
	}
}
