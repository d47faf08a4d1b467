package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// Kind категория ошибки обмена с backend'ом
type Kind string

const (
	KindNetwork      Kind = "network"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// Сообщения по умолчанию для каждой категории
const (
	MsgNetwork      = "Network error. Please check your connection."
	MsgValidation   = "Validation error. Please check your input."
	MsgUnauthorized = "You are not authorized. Please log in again."
	MsgForbidden    = "You do not have permission to perform this action."
	MsgNotFound     = "The requested resource was not found."
	MsgServer       = "Internal server error. Please try again later."
	MsgUnknown      = "An unexpected error occurred."
)

// APIError нормализованная ошибка HTTP-обмена.
// Kind и Status заполнены всегда, Status == 0 означает, что ответа не было.
type APIError struct {
	Details any    // errors или detail из тела ответа
	Err     error  // исходная транспортная ошибка, если ответа не было
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Sentinel-значения для errors.Is: сравнение идет только по Kind
var (
	ErrNetwork      = &APIError{Kind: KindNetwork}
	ErrValidation   = &APIError{Kind: KindValidation}
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrForbidden    = &APIError{Kind: KindForbidden}
	ErrNotFound     = &APIError{Kind: KindNotFound}
	ErrServer       = &APIError{Kind: KindServer}
	ErrUnknown      = &APIError{Kind: KindUnknown}
)

// ErrSessionExpired оборачивает ошибку неудачного обновления токена
var ErrSessionExpired = errors.New("session expired")

func (e *APIError) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is сравнивает ошибки по категории
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf возвращает категорию ошибки или "" для не-APIError
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func classify(status int) (Kind, string) {
	switch status {
	case http.StatusBadRequest:
		return KindValidation, MsgValidation
	case http.StatusUnauthorized:
		return KindUnauthorized, MsgUnauthorized
	case http.StatusForbidden:
		return KindForbidden, MsgForbidden
	case http.StatusNotFound:
		return KindNotFound, MsgNotFound
	case http.StatusInternalServerError:
		return KindServer, MsgServer
	default:
		return KindUnknown, MsgUnknown
	}
}

// newNetworkError ответа не было: обрыв соединения, timeout, отмена контекста
func newNetworkError(err error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Status:  0,
		Message: MsgNetwork,
		Err:     err,
	}
}

// newResponseError строит ошибку по статусу и телу ответа.
// message (или строковый detail) из тела заменяет сообщение категории.
func newResponseError(status int, body []byte) *APIError {
	kind, msg := classify(status)
	apiErr := &APIError{
		Kind:    kind,
		Status:  status,
		Message: msg,
	}

	var errResp pkgapi.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return apiErr
	}

	if errResp.Message != "" {
		apiErr.Message = errResp.Message
	} else if detail, ok := errResp.Detail.(string); ok && detail != "" {
		apiErr.Message = detail
	}

	if errResp.Errors != nil {
		apiErr.Details = errResp.Errors
	} else if errResp.Detail != nil {
		apiErr.Details = errResp.Detail
	}

	return apiErr
}
