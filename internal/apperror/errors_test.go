package apperror

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := &Error{Kind: KindNozzleUnavailable, Message: "tabanca kullanımda", NozzleID: 7}
	wrapped := fmt.Errorf("vardiya açılamadı: %w", base)

	assert.Equal(t, KindNozzleUnavailable, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNozzleUnavailable))
	assert.False(t, Is(wrapped, KindLastNozzle))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
}

func TestError_MessageAndDetails(t *testing.T) {
	e := &Error{Kind: KindNotPendingVerification, Message: "onay beklemiyor", ShiftID: 3, Status: "verified"}

	assert.Equal(t, "NOT_PENDING_VERIFICATION: onay beklemiyor (status=verified)", e.Error())
	assert.Equal(t, fiber.Map{"shift_id": uint(3), "status": "verified"}, e.Details())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindAlreadyActive:              fiber.StatusConflict,
		KindNozzleUnavailable:          fiber.StatusConflict,
		KindMissingClosingReading:      fiber.StatusUnprocessableEntity,
		KindRequestNotPending:          fiber.StatusUnprocessableEntity,
		KindShiftLocked:                fiber.StatusForbidden,
		KindForbidden:                  fiber.StatusForbidden,
		KindShiftNotFound:              fiber.StatusNotFound,
		KindRequestNotFound:            fiber.StatusNotFound,
		KindDenominationMismatch:       fiber.StatusBadRequest,
		KindUnauthorized:               fiber.StatusUnauthorized,
		Kind("SOMETHING_ELSE"):         fiber.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
