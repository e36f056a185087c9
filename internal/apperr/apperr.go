// Package apperr définit les erreurs métier partagées par le catalogue, les
// commandes et les comptes. Les handlers traduisent un Kind en statut HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// HTTPStatus donne le code HTTP renvoyé au client pour ce kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error est une erreur montrable au client via Message; Cause n'est que loggée.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func State(msg string) *Error { return &Error{Kind: KindState, Message: msg} }

func Statef(format string, args ...any) *Error { return State(fmt.Sprintf(format, args...)) }

// Internal enveloppe une panne inattendue (base, réseau...).
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// KindOf retourne le kind de err, KindInternal pour toute autre erreur.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is dit si err est un *Error de kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// FieldErrors accumule toutes les erreurs de champs d'une requête pour les
// renvoyer d'un coup.
type FieldErrors struct {
	msgs []string
}

func (f *FieldErrors) Add(msg string) { f.msgs = append(f.msgs, msg) }

func (f *FieldErrors) Addf(format string, args ...any) { f.Add(fmt.Sprintf(format, args...)) }

func (f *FieldErrors) Len() int { return len(f.msgs) }

// Err retourne nil si rien n'a été collecté.
func (f *FieldErrors) Err() error {
	if len(f.msgs) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(f.msgs, ", "),
		Fields:  append([]string(nil), f.msgs...),
	}
}
