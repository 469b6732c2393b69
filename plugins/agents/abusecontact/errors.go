package abusecontact

import (
	"fmt"
)

/*
 * Invalid agent options, detected before any network call
 */
type ValidationError struct {
	Option string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Option, e.Reason)
}

/*
 * Lookup service can't be reached: DNS, connection or TLS failure
 */
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "Can't do an HTTP request: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

/*
 * Lookup service response is not a JSON object
 */
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "Can't decode a JSON response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
