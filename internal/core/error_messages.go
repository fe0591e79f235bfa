package core

// error_messages.go maps errors to user-friendly messages with codes for
// support reference. When users report a problem they can quote the code.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: the spreadsheet could not be downloaded
//	         Action: try again in a few moments
//	SRC002 - Source too large: the export exceeded SOURCE_MAX_BYTES
//	         Action: raise the limit or trim the sheet
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - No recognizable columns in the header row
//	         Action: check SHEET_CSV_URL points at the delivery sheet
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid date in a filter parameter
//	         Action: use DD/MM/YYYY or YYYY-MM-DD
//	REQ002 - Unknown export format
//	         Action: use csv or xlsx
//	REQ003 - Request was cancelled
//	REQ004 - Request timed out
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Every export slot is busy
//	         Action: retry shortly
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively with strings.Contains; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSourceTooLarge = UserMessage{
		Message: "A planilha excede o tamanho máximo permitido",
		Action:  "Aumente SOURCE_MAX_BYTES ou reduza a planilha",
		Code:    "SRC002",
	}
	msgSourceUnavailable = UserMessage{
		Message: "Dados indisponíveis no momento",
		Action:  "Tente novamente em alguns instantes",
		Code:    "SRC001",
	}
	msgSchema = UserMessage{
		Message: "A planilha não possui nenhuma coluna reconhecida",
		Action:  "Verifique se SHEET_CSV_URL aponta para a planilha de entregas",
		Code:    "SCH001",
	}
	msgInvalidDate = UserMessage{
		Message: "Data inválida",
		Action:  "Use o formato DD/MM/AAAA ou AAAA-MM-DD",
		Code:    "REQ001",
	}
	msgExportBusy = UserMessage{
		Message: "Muitas exportações em andamento",
		Action:  "Aguarde alguns segundos e tente novamente",
		Code:    "EXP001",
	}
	msgCanceled = UserMessage{
		Message: "A requisição foi cancelada",
		Action:  "Tente novamente",
		Code:    "REQ003",
	}
	msgTimeout = UserMessage{
		Message: "A requisição expirou",
		Action:  "Verifique sua conexão e tente novamente",
		Code:    "REQ004",
	}
)

// sentinelMessages are checked in order; ErrSourceTooLarge must precede
// ErrSourceUnavailable because it matches both.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrSourceTooLarge, msgSourceTooLarge},
	{ErrSourceUnavailable, msgSourceUnavailable},
	{ErrSchema, msgSchema},
	{ErrInvalidDate, msgInvalidDate},
	{ErrExportBusy, msgExportBusy},
	{context.Canceled, msgCanceled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that lost their sentinel on the way (for
// example errors rebuilt from strings by a transport).
var errorPatterns = []errorPattern{
	{pattern: "source too large", msg: msgSourceTooLarge},
	{pattern: "source unavailable", msg: msgSourceUnavailable},
	{pattern: "no recognizable columns", msg: msgSchema},
	{pattern: "invalid date", msg: msgInvalidDate},
	{pattern: "too many concurrent exports", msg: msgExportBusy},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Formato de exportação inválido",
			Action:  "Use format=csv ou format=xlsx",
			Code:    "REQ002",
		},
	},
	{pattern: "context canceled", msg: msgCanceled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Muitas requisições",
			Action:  "Aguarde um momento antes de tentar novamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
