package production

import (
	"errors"
	"fmt"

	"aligner-lab-backend/internal/models"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindInvalidTransition   Kind = "invalid_transition"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindNotFound            Kind = "not_found"
	KindCancelled           Kind = "cancelled"
)

// Error é uma condição de negócio; Message vai ao operador sem alteração.
type Error struct {
	Kind    Kind
	Message string

	// somente para saldo insuficiente
	Arch      models.Arch
	Available int
	Requested int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is compara apenas o Kind, para errors.Is(err, ErrNotFound) etc.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrCancelled           = &Error{Kind: KindCancelled}
)

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidTransition(from, to models.WorkItemStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("Transição inválida: %s → %s", from, to),
	}
}

func insufficientBalance(arch models.Arch, available, requested int) *Error {
	return &Error{
		Kind:      KindInsufficientBalance,
		Message:   fmt.Sprintf("Saldo insuficiente no banco de reposição (%s): disponível %d, solicitado %d", arch, available, requested),
		Arch:      arch,
		Available: available,
		Requested: requested,
	}
}

// KindOf: Kind do erro de negócio, "" para falhas de infraestrutura
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
