package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error, shaped domain.op.reason.
type Code string

const (
	CodeValidationInvalidInput Code = "validation.input.invalid"

	CodeStorageUnavailable       Code = "storage.backend.unavailable"
	CodeStorageDimensionMismatch Code = "storage.vector.dimension_mismatch"

	CodeExtractionUpstreamFailure Code = "extraction.upstream.failure"
	CodeExtractionResponseInvalid Code = "extraction.response.invalid"

	CodeTranscriptionUpstreamFailure Code = "transcription.upstream.failure"

	CodeConfigOptionInvalid Code = "config.option.invalid"

	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldCollection(value string) Attr {
	return Field("collection", value)
}

func FieldRecordID(value string) Attr {
	return Field("record_id", value)
}

func FieldFilename(value string) Attr {
	return Field("filename", value)
}

// New, Errorf, Wrap and Wrapf record their own message as the public one, so
// Message never exposes a wrapped cause.
func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).Public(msg).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return oops.Code(code).Public(msg).New(msg)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Public(msg).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Public(fmt.Sprintf(format, args...)).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

// Message is the client-safe text of err: the message given where the code was
// attached, without the causes below it. Errors without one get a generic text.
func Message(err error) string {
	if err == nil {
		return ""
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		if public := oopsErr.Public(); len(public) > 0 {
			return public
		}
	}

	return http.StatusText(HTTPStatus(err))
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsValidation reports malformed caller input, rejected before any backend call.
func IsValidation(err error) bool {
	return domain(CodeOf(err)) == "validation"
}

// IsStorage reports a vector backend that is unreachable or rejected a write.
func IsStorage(err error) bool {
	return domain(CodeOf(err)) == "storage"
}

// IsRetryable reports failures the caller may retry later without changing its input.
func IsRetryable(err error) bool {
	switch domain(CodeOf(err)) {
	case "storage", "extraction", "transcription":
		return !HasCode(err, CodeStorageDimensionMismatch)
	default:
		return false
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsStorage(err), IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func domain(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.Index(raw, ".")
	if idx == -1 {
		return raw
	}
	return raw[:idx]
}
