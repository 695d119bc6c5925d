package http

import (
	"strings"
	"testing"
)

type validatedReq struct {
	Account string `validate:"required,hex32"`
	Amount  string `validate:"required,amount"`
	Choice  string `validate:"omitempty,votechoice"`
}

func TestCustomValidator(t *testing.T) {
	cv := NewValidator()

	ok := validatedReq{Account: strings.Repeat("a", 32), Amount: "1000", Choice: "liquidate"}
	if err := cv.Validate(&ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		req  validatedReq
	}{
		{"uppercase account", validatedReq{Account: strings.Repeat("A", 32), Amount: "1"}},
		{"short account", validatedReq{Account: "abc", Amount: "1"}},
		{"decimal amount", validatedReq{Account: strings.Repeat("a", 32), Amount: "1.5"}},
		{"negative amount", validatedReq{Account: strings.Repeat("a", 32), Amount: "-5"}},
		{"unknown choice", validatedReq{Account: strings.Repeat("a", 32), Amount: "1", Choice: "hodl"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := cv.Validate(&tc.req); err == nil {
				t.Fatal("invalid request accepted")
			}
		})
	}
}

func TestToFieldErrors(t *testing.T) {
	cv := NewValidator()
	bad := validatedReq{Account: "nope", Amount: ""}
	err := cv.Validate(&bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := ToFieldErrors(err)
	if !containsFieldMsg(details, "Account", "hex") {
		t.Fatalf("details = %+v", details)
	}
	if !containsFieldMsg(details, "Amount", "required") {
		t.Fatalf("details = %+v", details)
	}
}
