package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "missing key",
			code:    "R001",
			wantMsg: "Property is not declared",
			wantCat: CategoryRuntime,
		},
		{
			name:    "usage error",
			code:    "U001",
			wantMsg: "Observe does not support fire immediately",
			wantCat: CategoryUsage,
		},
		{
			name:    "config error",
			code:    "C002",
			wantMsg: "Invalid config file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryScenario, "step %d failed", 3)
	if err.Message != "step 3 failed" {
		t.Errorf("Message = %q, want %q", err.Message, "step 3 failed")
	}
	if err.Category != CategoryScenario {
		t.Errorf("Category = %q, want %q", err.Category, CategoryScenario)
	}
}

func TestReactorError_Error(t *testing.T) {
	err := New("R001")
	if got, want := err.Error(), "R001: Property is not declared"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithObject("Todo@1", "title")
	if got, want := err.Error(), "R001: Property is not declared (Todo@1.title)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &ReactorError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestReactorError_Wrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("R004").Wrap(sentinel)

	if err.Unwrap() != sentinel {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R001") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	re := New("R001")
	if FromError(re, "R002") != re {
		t.Error("FromError should return ReactorError as-is")
	}

	stdErr := stderrors.New("boom")
	result := FromError(stdErr, "S003")
	if result.Wrapped != stdErr {
		t.Error("standard error should be wrapped")
	}
	if result.Code != "S003" {
		t.Errorf("Code = %q, want S003", result.Code)
	}
}

func TestCodeOf(t *testing.T) {
	inner := New("R005")
	outer := New("S003").Wrap(inner)

	if got := CodeOf(outer); got != "S003" {
		t.Errorf("CodeOf(outer) = %q, want S003", got)
	}
	if got := CodeOf(inner); got != "R005" {
		t.Errorf("CodeOf(inner) = %q, want R005", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestSubject_String(t *testing.T) {
	tests := []struct {
		name string
		s    *Subject
		want string
	}{
		{"nil", nil, ""},
		{"object only", &Subject{Object: "Todo@1"}, "Todo@1"},
		{"key only", &Subject{Key: "title"}, "title"},
		{"both", &Subject{Object: "Todo@1", Key: "title"}, "Todo@1.title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R001").WithObject("Todo@1", "title")
	out := err.Format()

	for _, want := range []string{"ERROR R001: Property is not declared", "Todo@1.title", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("R002").WithObject("Obj@1", "x")
	out := err.FormatJSON()

	for _, want := range []string{`"code":"R002"`, `"category":"runtime"`, `"subject":{"object":"Obj@1","key":"x"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatJSON() missing %s in %s", want, out)
		}
	}
}

func TestFormatJSONEscapesControlBytes(t *testing.T) {
	err := New("R001").WithObject("obj", "k\x01\xff").Wrap(stderrors.New("bad\tcause"))

	var decoded struct {
		Code    string `json:"code"`
		Subject struct {
			Object string `json:"object"`
			Key    string `json:"key"`
		} `json:"subject"`
		Cause string `json:"cause"`
	}
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v\n%s", jerr, err.FormatJSON())
	}
	if decoded.Code != "R001" || decoded.Subject.Object != "obj" {
		t.Errorf("unexpected decode %+v", decoded)
	}
	if !strings.HasPrefix(decoded.Subject.Key, "k\x01") {
		t.Errorf("key lost its control byte: %q", decoded.Subject.Key)
	}
	if decoded.Cause != "bad\tcause" {
		t.Errorf("cause = %q", decoded.Cause)
	}
}

func TestPrintErrorUnwraps(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	fprintError(&buf, fmt.Errorf("run: %w", New("S003")))
	if out := buf.String(); !strings.Contains(out, "ERROR S003:") {
		t.Errorf("wrapped ReactorError not formatted:\n%s", out)
	}

	buf.Reset()
	fprintError(&buf, stderrors.New("plain"))
	if out := buf.String(); !strings.Contains(out, "ERROR: plain") {
		t.Errorf("plain error not formatted:\n%s", out)
	}
}

func TestFromErrorUnwraps(t *testing.T) {
	inner := New("R004")
	if got := FromError(fmt.Errorf("ctx: %w", inner), "S003"); got != inner {
		t.Errorf("FromError should return the wrapped ReactorError, got %v", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
}

func TestRegistryCodesHaveCategory(t *testing.T) {
	for _, code := range Codes() {
		tmpl, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) failed", code)
		}
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("code %s has empty category or message", code)
		}
	}
}
