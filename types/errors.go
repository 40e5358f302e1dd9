package types

import "fmt"

// ErrorKind enumerates the user-visible error taxonomy of spec §7. Every
// error that crosses the public operation boundary carries one of these.
type ErrorKind int

const (
	_ ErrorKind = iota
	ErrTransport
	ErrMalformedResponse
	ErrAddressInvalid
	ErrMnemonicInvalid
	ErrKeyFormatInvalid
	ErrNotEnoughBalance
	ErrAmountInvalid
	ErrMixinOutOfRange
	ErrPaymentIDInvalid
	ErrFeeTooSmall
	ErrDaemonSyncError
	ErrScanIntegrityError
	ErrSubwalletNotFound
	ErrPreparedTransactionNotFound
	ErrLedgerError
)

var errorKindNames = map[ErrorKind]string{
	ErrTransport:                   "TransportError",
	ErrMalformedResponse:           "MalformedResponse",
	ErrAddressInvalid:              "AddressInvalid",
	ErrMnemonicInvalid:             "MnemonicInvalid",
	ErrKeyFormatInvalid:            "KeyFormatInvalid",
	ErrNotEnoughBalance:            "NotEnoughBalance",
	ErrAmountInvalid:               "AmountInvalid",
	ErrMixinOutOfRange:             "MixinOutOfRange",
	ErrPaymentIDInvalid:            "PaymentIdInvalid",
	ErrFeeTooSmall:                 "FeeTooSmall",
	ErrDaemonSyncError:             "DaemonSyncError",
	ErrScanIntegrityError:          "ScanIntegrityError",
	ErrSubwalletNotFound:           "SubwalletNotFound",
	ErrPreparedTransactionNotFound: "PreparedTransactionNotFound",
	ErrLedgerError:                 "LedgerError",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// WalletError is the stable (code, message) error returned across the
// public operation boundary (spec §7): no bare exception/panic is
// surfaced for any condition in the taxonomy.
type WalletError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *WalletError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewWalletError constructs a WalletError with a formatted message.
func NewWalletError(kind ErrorKind, format string, args ...interface{}) *WalletError {
	return &WalletError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
