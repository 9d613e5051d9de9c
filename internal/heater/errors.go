package heater

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorType is the category of a DeviceError. Only two categories exist:
// communication failures are transient and may be masked by a cached snapshot,
// API errors point at a defect and are always surfaced.
type ErrorType int

const (
	// ErrTypeCommunication covers timeouts, connection and DNS failures and
	// non-2xx responses.
	ErrTypeCommunication ErrorType = iota
	// ErrTypeAPI covers everything else: bad requests, unreadable bodies.
	ErrTypeAPI
)

// CommunicationKind narrows down a communication error for diagnostics.
type CommunicationKind int

const (
	CommunicationGeneral CommunicationKind = iota
	CommunicationTimeout
	CommunicationConnectionRefused
	CommunicationDNS
	CommunicationHostUnreachable
	CommunicationNetworkUnreachable
	CommunicationHTTPStatus
	// CommunicationCircuitOpen means no request was made because recent
	// fetches kept failing
	CommunicationCircuitOpen
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeCommunication:
		return "Communication Error"
	case ErrTypeAPI:
		return "API Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError is returned by every Client operation.
type DeviceError struct {
	Type       ErrorType         // Category of error
	Kind       CommunicationKind // Detail for communication errors
	Message    string            // Human-readable error message
	StatusCode int               // HTTP status code (if applicable)
	Host       string            // Device host (for context)
	Err        error             // Underlying error (if any)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError turns a transport-level failure into a communication
// DeviceError with the most specific Kind it can determine.
func ClassifyNetworkError(err error, host string) *DeviceError {
	if err == nil {
		return nil
	}

	devErr := &DeviceError{
		Type:    ErrTypeCommunication,
		Kind:    CommunicationGeneral,
		Message: "Network error occurred",
		Host:    host,
		Err:     err,
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		devErr.Kind = CommunicationTimeout
		devErr.Message = "Request timed out"
	case errors.As(err, &dnsErr):
		devErr.Kind = CommunicationDNS
		devErr.Message = fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED):
		devErr.Kind = CommunicationConnectionRefused
		devErr.Message = "Device refused connection"
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.EHOSTUNREACH):
		devErr.Kind = CommunicationHostUnreachable
		devErr.Message = "Host unreachable"
	case errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ENETUNREACH):
		devErr.Kind = CommunicationNetworkUnreachable
		devErr.Message = "Network unreachable"
	}

	return devErr
}

// NewCommunicationError creates a communication error with automatic classification
func NewCommunicationError(message, host string, err error) *DeviceError {
	devErr := ClassifyNetworkError(err, host)
	if devErr == nil {
		devErr = &DeviceError{Type: ErrTypeCommunication, Host: host}
	}
	devErr.Message = message
	return devErr
}

// NewHTTPStatusError creates a communication error for a non-2xx response
func NewHTTPStatusError(statusCode int, host string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeCommunication,
		Kind:       CommunicationHTTPStatus,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		Host:       host,
	}
}

// NewCircuitOpenError creates a communication error for a fetch that was
// short-circuited without contacting the device.
func NewCircuitOpenError(host string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeCommunication,
		Kind:    CommunicationCircuitOpen,
		Message: "fetch skipped, heater recently unreachable",
		Host:    host,
		Err:     err,
	}
}

// NewAPIError creates a general API error
func NewAPIError(message, host string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeAPI,
		Message: message,
		Host:    host,
		Err:     err,
	}
}

// IsCommunicationError checks if err (or anything it wraps) is a communication error
func IsCommunicationError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Type == ErrTypeCommunication
}

// IsAPIError checks if err (or anything it wraps) is an API error
func IsAPIError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Type == ErrTypeAPI
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	if devErr.Type == ErrTypeAPI {
		return "Unexpected error talking to the heater"
	}

	switch devErr.Kind {
	case CommunicationTimeout:
		return "Cannot connect: heater not responding (timeout)"
	case CommunicationConnectionRefused:
		return "Cannot connect: heater refused connection"
	case CommunicationDNS:
		return "Cannot connect: cannot resolve heater hostname"
	case CommunicationHostUnreachable:
		return "Cannot connect: heater unreachable"
	case CommunicationNetworkUnreachable:
		return "Cannot connect: network unreachable"
	case CommunicationHTTPStatus:
		return fmt.Sprintf("Cannot connect: heater returned HTTP %d", devErr.StatusCode)
	case CommunicationCircuitOpen:
		return "Cannot connect: heater unreachable, backing off"
	default:
		return "Cannot connect to the heater"
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return "An unexpected error occurred. Please try again."
	}

	if devErr.Type == ErrTypeAPI {
		return strings.Join([]string{
			"The heater answered but the response could not be handled.",
			"Troubleshooting:",
			"  • Check that the host points at the heater and not another web server",
			"  • Re-run with --log-level debug and report the output",
		}, "\n")
	}

	switch devErr.Kind {
	case CommunicationTimeout:
		return strings.Join([]string{
			"The heater did not respond in time.",
			"Troubleshooting:",
			"  • Check that the heater control unit is powered on",
			"  • Verify you're connected to the van's WiFi network",
			"  • Try increasing --timeout",
		}, "\n")

	case CommunicationConnectionRefused:
		return strings.Join([]string{
			"The heater refused the connection.",
			"Troubleshooting:",
			"  • The heater's web server may still be booting - wait and retry",
			"  • Verify the host is the heater and not the router",
		}, "\n")

	case CommunicationDNS:
		return strings.Join([]string{
			"Could not resolve the heater hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case CommunicationHTTPStatus:
		return strings.Join([]string{
			fmt.Sprintf("The heater returned HTTP %d.", devErr.StatusCode),
			"Troubleshooting:",
			"  • Power-cycle the heater control unit",
			"  • Verify nothing else is serving on the configured host",
		}, "\n")

	case CommunicationCircuitOpen:
		return strings.Join([]string{
			"Several fetches in a row failed, so requests are paused for a while.",
			"Troubleshooting:",
			"  • Check that the heater control unit is powered on",
			"  • Lower --breaker-failures or set it to 0 to disable the pause",
		}, "\n")

	default:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify the heater is powered on",
			"  • Try pinging the heater: ping " + devErr.Host,
		}, "\n")
	}
}
