// Package apperr holds the error taxonomy shared by the repositories and
// mapped to HTTP statuses by the server.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a store named %q already exists", e.Name)
}

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

type LastStoreError struct{}

func (e *LastStoreError) Error() string {
	return "cannot delete the last remaining store"
}

// PersistenceError wraps a storage failure. Op names the attempted operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Persistence wraps err unless it already belongs to the taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomain reports whether err is one of the taxonomy types.
func IsDomain(err error) bool {
	var (
		v  *ValidationError
		d  *DuplicateNameError
		nf *NotFoundError
		ls *LastStoreError
		p  *PersistenceError
	)
	return errors.As(err, &v) || errors.As(err, &d) || errors.As(err, &nf) || errors.As(err, &ls) || errors.As(err, &p)
}

// Status maps err to an HTTP status and a client facing message. ok is false
// for errors outside the taxonomy.
func Status(err error) (status int, message string, ok bool) {
	var (
		v  *ValidationError
		d  *DuplicateNameError
		nf *NotFoundError
		ls *LastStoreError
		p  *PersistenceError
	)
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest, v.Error(), true
	case errors.As(err, &d):
		return http.StatusConflict, d.Error(), true
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error(), true
	case errors.As(err, &ls):
		return http.StatusConflict, ls.Error(), true
	case errors.As(err, &p):
		// storage details stay in the logs
		return http.StatusInternalServerError, p.Op + " failed", true
	}
	return 0, "", false
}
