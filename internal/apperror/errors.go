package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind, vardiya çekirdeğinin döndürdüğü hata türüdür.
type Kind string

const (
	// Conflict
	KindAlreadyActive         Kind = "ALREADY_ACTIVE"
	KindNozzleUnavailable     Kind = "NOZZLE_UNAVAILABLE"
	KindRequestAlreadyPending Kind = "REQUEST_ALREADY_PENDING"
	KindStatusChanged         Kind = "STATUS_CHANGED"

	// Precondition
	KindMissingClosingReading          Kind = "MISSING_CLOSING_READING"
	KindLastNozzle                     Kind = "LAST_NOZZLE"
	KindSalesAlreadyRecorded           Kind = "SALES_ALREADY_RECORDED"
	KindNotInProgress                  Kind = "NOT_IN_PROGRESS"
	KindNotPendingVerification         Kind = "NOT_PENDING_VERIFICATION"
	KindNotRejected                    Kind = "NOT_REJECTED"
	KindNotVerified                    Kind = "NOT_VERIFIED"
	KindRequestNotPending              Kind = "REQUEST_NOT_PENDING"
	KindCannotDeleteVerifiedOrRejected Kind = "CANNOT_DELETE_VERIFIED_OR_REJECTED"
	KindNozzleInactive                 Kind = "NOZZLE_INACTIVE"

	// Authorization
	KindShiftLocked  Kind = "SHIFT_LOCKED"
	KindForbidden    Kind = "FORBIDDEN"
	KindUnauthorized Kind = "UNAUTHORIZED"

	// Not found
	KindShiftNotFound         Kind = "SHIFT_NOT_FOUND"
	KindPaymentNotFound       Kind = "PAYMENT_NOT_FOUND"
	KindNozzleReadingNotFound Kind = "NOZZLE_READING_NOT_FOUND"
	KindRequestNotFound       Kind = "REQUEST_NOT_FOUND"
	KindNozzleNotFound        Kind = "NOZZLE_NOT_FOUND"

	// Validation
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindDenominationMismatch Kind = "DENOMINATION_MISMATCH"
)

// Error, düzeltici bir tekrar denemeyi yönlendirecek bağlamı alan olarak taşır.
// Sıfır değerli alanlar ilgisizdir.
type Error struct {
	Kind    Kind
	Message string

	ShiftID   uint
	NozzleID  uint
	ReadingID uint
	PaymentID uint
	RequestID uint

	// Status, durum ön koşulu başarısız olduğunda vardiyanın (veya talebin) o anki durumudur.
	Status string
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s (status=%s)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Details, yanıt gövdesine eklenecek yapısal alanları döndürür.
func (e *Error) Details() fiber.Map {
	d := fiber.Map{}
	if e.ShiftID != 0 {
		d["shift_id"] = e.ShiftID
	}
	if e.NozzleID != 0 {
		d["nozzle_id"] = e.NozzleID
	}
	if e.ReadingID != 0 {
		d["reading_id"] = e.ReadingID
	}
	if e.PaymentID != 0 {
		d["payment_id"] = e.PaymentID
	}
	if e.RequestID != 0 {
		d["request_id"] = e.RequestID
	}
	if e.Status != "" {
		d["status"] = e.Status
	}
	return d
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf, zincirdeki ilk *Error türünü döndürür; yoksa boş string.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is, err zincirinde verilen türde bir *Error olup olmadığını söyler.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus, hata türünü HTTP durum koduna eşler.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAlreadyActive, KindNozzleUnavailable, KindRequestAlreadyPending, KindStatusChanged:
		return fiber.StatusConflict
	case KindMissingClosingReading, KindLastNozzle, KindSalesAlreadyRecorded,
		KindNotInProgress, KindNotPendingVerification, KindNotRejected, KindNotVerified,
		KindRequestNotPending, KindCannotDeleteVerifiedOrRejected, KindNozzleInactive:
		return fiber.StatusUnprocessableEntity
	case KindShiftLocked, KindForbidden:
		return fiber.StatusForbidden
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindShiftNotFound, KindPaymentNotFound, KindNozzleReadingNotFound,
		KindRequestNotFound, KindNozzleNotFound:
		return fiber.StatusNotFound
	case KindInvalidInput, KindDenominationMismatch:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
