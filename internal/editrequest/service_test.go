package editrequest

import (
	"context"
	"sync"
	"testing"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/shift"
	"istasyon-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actorOf(u models.User) auth.Actor {
	return auth.Actor{UserID: u.ID, StationID: u.StationID, Role: u.Role, Name: u.Name}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "hata: %v", err)
}

// verifiedShift, Attendant'a ait onaylanmış bir vardiya hazırlar.
func verifiedShift(t *testing.T) (*Service, *shift.Service, *testutil.Fixture, *models.Shift) {
	t.Helper()
	f := testutil.Seed(t)
	shifts := shift.NewService(f.DB)
	ctx := context.Background()

	sh, err := shifts.Start(ctx, actorOf(f.Attendant), shift.StartInput{Type: models.ShiftTypeMorning, NozzleIDs: []uint{f.NozzleA.ID}})
	require.NoError(t, err)
	_, err = shifts.Complete(ctx, actorOf(f.Attendant), sh.ID, shift.CompleteInput{
		Readings: []shift.ClosingInput{{NozzleID: f.NozzleA.ID, ClosingReading: testutil.Dec("1040")}},
	})
	require.NoError(t, err)
	sh, err = shifts.Verify(ctx, actorOf(f.Admin), sh.ID, shift.VerifyInput{Approved: true})
	require.NoError(t, err)
	require.Equal(t, models.ShiftStatusVerified, sh.Status)

	return NewService(f.DB), shifts, f, sh
}

func TestScenario_RequestApproveReopens(t *testing.T) {
	svc, shifts, f, sh := verifiedShift(t)
	ctx := context.Background()

	req, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "kart ödemesi eksik girilmiş")
	require.NoError(t, err)
	assert.Equal(t, models.EditRequestPending, req.Status)

	_, err = svc.Request(ctx, actorOf(f.Manager), sh.ID, "ikinci talep")
	assertKind(t, err, apperror.KindRequestAlreadyPending)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, req.ID, appErr.RequestID)

	// talep bekliyorken vardiya hâlâ kilitli
	_, err = shifts.UpdateDetails(ctx, actorOf(f.Admin), sh.ID, shift.DetailsInput{Notes: strPtr("düzeltme")})
	assertKind(t, err, apperror.KindShiftLocked)

	approved, err := svc.Approve(ctx, actorOf(f.Attendant), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EditRequestApproved, approved.Status)
	require.NotNil(t, approved.ApprovedByUserID)
	assert.Equal(t, f.Attendant.ID, *approved.ApprovedByUserID)
	assert.NotNil(t, approved.ApprovedAt)

	detail, err := shifts.Get(ctx, actorOf(f.Admin), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusPendingVerification, detail.Shift.Status)
	assert.Nil(t, detail.Shift.VerifiedAt)
	assert.Nil(t, detail.Shift.VerifiedByUserID)

	// artık yönetici düzenleyebilir
	_, err = shifts.UpdateDetails(ctx, actorOf(f.Admin), sh.ID, shift.DetailsInput{Notes: strPtr("düzeltme")})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, actorOf(f.Manager), req.ID)
	assertKind(t, err, apperror.KindRequestNotPending)

	history, err := svc.History(ctx, actorOf(f.Attendant), sh.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].RequestedBy)
	assert.Equal(t, f.Admin.Name, history[0].RequestedBy.Name)
}

func strPtr(s string) *string { return &s }

func TestRequest_Preconditions(t *testing.T) {
	svc, shifts, f, sh := verifiedShift(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, actorOf(f.Attendant), sh.ID, "neden")
	assertKind(t, err, apperror.KindForbidden)

	_, err = svc.Request(ctx, actorOf(f.Admin), sh.ID, "   ")
	assertKind(t, err, apperror.KindInvalidInput)

	_, err = svc.Request(ctx, actorOf(f.Outsider), sh.ID, "neden")
	assertKind(t, err, apperror.KindShiftNotFound)

	open, err := shifts.Start(ctx, actorOf(f.Attendant2), shift.StartInput{Type: models.ShiftTypeNight, NozzleIDs: []uint{f.NozzleB.ID}})
	require.NoError(t, err)
	_, err = svc.Request(ctx, actorOf(f.Admin), open.ID, "neden")
	assertKind(t, err, apperror.KindNotVerified)
}

func TestApprove_Authorization(t *testing.T) {
	svc, _, f, sh := verifiedShift(t)
	ctx := context.Background()

	req, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "tutar düzeltmesi")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, actorOf(f.Admin), req.ID)
	assertKind(t, err, apperror.KindForbidden)

	// başka pompacı talebi göremez
	_, err = svc.Approve(ctx, actorOf(f.Attendant2), req.ID)
	assertKind(t, err, apperror.KindRequestNotFound)

	_, err = svc.Approve(ctx, actorOf(f.Outsider), req.ID)
	assertKind(t, err, apperror.KindRequestNotFound)

	// başka bir yönetici onaylayabilir
	_, err = svc.Approve(ctx, actorOf(f.Manager), req.ID)
	require.NoError(t, err)
}

func TestApprove_RequesterWhoOwnsTheShift(t *testing.T) {
	f := testutil.Seed(t)
	shifts := shift.NewService(f.DB)
	svc := NewService(f.DB)
	ctx := context.Background()

	// yöneticinin kendi vardiyası
	sh, err := shifts.Start(ctx, actorOf(f.Admin), shift.StartInput{Type: models.ShiftTypeEvening, NozzleIDs: []uint{f.NozzleC.ID}})
	require.NoError(t, err)
	_, err = shifts.Complete(ctx, actorOf(f.Admin), sh.ID, shift.CompleteInput{
		Readings: []shift.ClosingInput{{NozzleID: f.NozzleC.ID, ClosingReading: testutil.Dec("230")}},
	})
	require.NoError(t, err)
	_, err = shifts.Verify(ctx, actorOf(f.Manager), sh.ID, shift.VerifyInput{Approved: true})
	require.NoError(t, err)

	req, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "sayaç düzeltmesi")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, actorOf(f.Admin), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EditRequestApproved, approved.Status)

	d, err := shifts.Get(ctx, actorOf(f.Admin), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusPendingVerification, d.Shift.Status)
}

func TestCancel(t *testing.T) {
	svc, shifts, f, sh := verifiedShift(t)
	ctx := context.Background()

	req, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "yanlış vardiya")
	require.NoError(t, err)

	err = svc.Cancel(ctx, actorOf(f.Attendant), req.ID)
	assertKind(t, err, apperror.KindForbidden)

	require.NoError(t, svc.Cancel(ctx, actorOf(f.Admin), req.ID))

	err = svc.Cancel(ctx, actorOf(f.Admin), req.ID)
	assertKind(t, err, apperror.KindRequestNotFound)

	detail, err := shifts.Get(ctx, actorOf(f.Admin), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusVerified, detail.Shift.Status)

	// iptal sonrası yeni talep açılabilir
	again, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "tekrar")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, actorOf(f.Attendant), again.ID)
	require.NoError(t, err)

	err = svc.Cancel(ctx, actorOf(f.Admin), again.ID)
	assertKind(t, err, apperror.KindRequestNotPending)
}

func TestRequest_ConcurrentOnlyOnePending(t *testing.T) {
	svc, _, f, sh := verifiedShift(t)

	admins := []models.User{f.Admin, f.Manager, f.Admin, f.Manager}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for _, u := range admins {
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			_, err := svc.Request(context.Background(), actorOf(u), sh.ID, "eşzamanlı")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperror.Is(err, apperror.KindRequestAlreadyPending):
				rejected++
			default:
				t.Errorf("beklenmeyen hata: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, len(admins)-1, rejected)
}

func TestQueue(t *testing.T) {
	svc, _, f, sh := verifiedShift(t)
	ctx := context.Background()

	req, err := svc.Request(ctx, actorOf(f.Admin), sh.ID, "kontrol")
	require.NoError(t, err)

	list, err := svc.Queue(ctx, actorOf(f.Manager), models.EditRequestPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, req.ID, list[0].ID)
	require.NotNil(t, list[0].Shift)
	assert.Equal(t, sh.ID, list[0].Shift.ID)

	own, err := svc.Queue(ctx, actorOf(f.Attendant), "")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	none, err := svc.Queue(ctx, actorOf(f.Attendant2), models.EditRequestPending)
	require.NoError(t, err)
	assert.Empty(t, none)

	approved, err := svc.Queue(ctx, actorOf(f.Admin), models.EditRequestApproved)
	require.NoError(t, err)
	assert.Empty(t, approved)

	_, err = svc.Queue(ctx, actorOf(f.Admin), "rejected")
	assertKind(t, err, apperror.KindInvalidInput)
}
