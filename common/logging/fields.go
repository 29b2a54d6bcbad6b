package logging

import (
	"log/slog"
	"time"
)

// Field names shared by every component that writes diagnostics.
const (
	FieldService    = "service"
	FieldRequestID  = "request_id"
	FieldDispatchID = "dispatch_id"
	FieldTerm       = "term"
	FieldURL        = "url"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldBytes      = "bytes"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldIP         = "ip"
)

func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

func RequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}

func DispatchID(id string) slog.Attr {
	return slog.String(FieldDispatchID, id)
}

// Term returns an attribute for the caller-supplied search term, unmodified.
func Term(term string) slog.Attr {
	return slog.String(FieldTerm, term)
}

func URL(u string) slog.Attr {
	return slog.String(FieldURL, u)
}

func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration reports d in whole milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

func Bytes(n int) slog.Attr {
	return slog.Int(FieldBytes, n)
}

// Error returns an attribute for err. A nil error yields an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func ErrorKind(kind string) slog.Attr {
	return slog.String(FieldErrorKind, kind)
}

func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}
