package claim

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cmcs-backend/internal/domain/access"
	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/document"
	"cmcs-backend/internal/domain/uow"
	"cmcs-backend/internal/domain/user"
	"cmcs-backend/internal/infrastructure/crypto"
	"cmcs-backend/internal/testutil/blobmock"
	"cmcs-backend/internal/testutil/claimmock"
	"cmcs-backend/internal/testutil/uowmock"
	"cmcs-backend/internal/testutil/usermock"
	docuc "cmcs-backend/internal/usecase/document"
)

const (
	lecturerID  = "11111111111111111111111111111111"
	otherLectID = "22222222222222222222222222222222"
)

var (
	lecturer    = access.Principal{Role: access.RoleLecturer, UserID: lecturerID}
	coordinator = access.Principal{Role: access.RoleCoordinator, UserID: "c"}
	manager     = access.Principal{Role: access.RoleManager, UserID: "m"}
	hr          = access.Principal{Role: access.RoleHR, UserID: "h"}
)

// memClaims is a claimmock.Repo backed by a map, enough to drive whole
// workflows through the usecase.
type memClaims struct {
	mu   sync.Mutex
	rows map[string]*claim.Claim
	seq  uint64
}

func (m *memClaims) repo() *claimmock.Repo {
	return &claimmock.Repo{
		CreateFn: func(_ context.Context, c *claim.Claim) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.seq++
			c.ID = m.seq
			cp := *c
			m.rows[c.ClaimID] = &cp
			return nil
		},
		GetByClaimIDFn: func(_ context.Context, id string) (*claim.Claim, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			c, ok := m.rows[id]
			if !ok {
				return nil, gorm.ErrRecordNotFound
			}
			cp := *c
			return &cp, nil
		},
		ListFn: func(_ context.Context, f claim.Filter) ([]claim.Claim, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []claim.Claim
			for _, c := range m.rows {
				if f.Status != "" && c.Status != f.Status {
					continue
				}
				if f.LecturerID != "" && c.LecturerID != f.LecturerID {
					continue
				}
				out = append(out, *c)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
			return out, nil
		},
		UpdateStatusFn: func(_ context.Context, id string, from, to claim.Status, at time.Time) (bool, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			c, ok := m.rows[id]
			if !ok || c.Status != from {
				return false, nil
			}
			c.Status = to
			c.StatusUpdatedAt = at
			return true, nil
		},
		DeleteFn: func(_ context.Context, id string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.rows, id)
			return nil
		},
		CountByStatusFn: func(context.Context) (map[claim.Status]int64, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := map[claim.Status]int64{}
			for _, c := range m.rows {
				out[c.Status]++
			}
			return out, nil
		},
		SumStoredAmountFn: func(_ context.Context, s claim.Status) (decimal.Decimal, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			sum := decimal.Zero
			for _, c := range m.rows {
				if c.Status == s {
					sum = sum.Add(c.StoredClaimAmount)
				}
			}
			return sum, nil
		},
	}
}

func (m *memClaims) status(id string) claim.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

func profiles(rate float64) *usermock.Repo {
	return &usermock.Repo{
		GetByUserIDFn: func(_ context.Context, id string) (*user.User, error) {
			switch id {
			case lecturerID:
				return &user.User{UserID: lecturerID, Role: access.RoleLecturer, FirstName: "Ada", LastName: "Lovelace", HourlyRate: rate}, nil
			case otherLectID:
				return &user.User{UserID: otherLectID, Role: access.RoleLecturer, FirstName: "Alan", LastName: "Turing", HourlyRate: rate}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		CountByRoleFn: func(context.Context, access.Role) (int64, error) { return 2, nil },
		CountFn:       func(context.Context) (int64, error) { return 5, nil },
	}
}

type fixture struct {
	uc     *Usecase
	claims *memClaims
	blobs  *blobmock.Store
	users  *usermock.Repo
}

func newFixture(t *testing.T, rate float64) *fixture {
	t.Helper()
	mem := &memClaims{rows: map[string]*claim.Claim{}}
	claims := mem.repo()
	users := profiles(rate)
	blobs := blobmock.New()
	docs := docuc.NewUsecase(blobs, crypto.NewCodec(crypto.StaticKey(bytes.Repeat([]byte{9}, crypto.KeySize))), 0, nil)
	uc := NewUsecase(claims, users, uowmock.Passthrough(uow.Repos{Claims: claims, Users: users}), docs, nil)
	uc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("SAST", 2*3600)) }
	return &fixture{uc: uc, claims: mem, blobs: blobs, users: users}
}

func TestSubmit_AutoApprovalAndAmounts(t *testing.T) {
	tests := []struct {
		hours      float64
		rate       float64
		wantStatus claim.Status
		wantAmount string
	}{
		{50, 500, claim.StatusApproved, "25000"},
		{10, 200, claim.StatusPending, "2000"},
		{39, 100, claim.StatusPending, "3900"},
		{40, 100, claim.StatusApproved, "4000"},
		{180, 2000, claim.StatusApproved, "360000"},
		{1, 100, claim.StatusPending, "100"},
		{7.5, 333.33, claim.StatusPending, "2499.98"},
	}
	for _, tt := range tests {
		f := newFixture(t, tt.rate)
		dto, err := f.uc.Submit(context.Background(), lecturer, SubmitInput{HoursWorked: tt.hours})
		if err != nil {
			t.Fatalf("Submit(%v, %v): %v", tt.hours, tt.rate, err)
		}
		if dto.Status != string(tt.wantStatus) {
			t.Errorf("hours=%v status=%s, want %s", tt.hours, dto.Status, tt.wantStatus)
		}
		if !dto.StoredClaimAmount.Equal(decimal.RequireFromString(tt.wantAmount)) {
			t.Errorf("hours=%v amount=%s, want %s", tt.hours, dto.StoredClaimAmount, tt.wantAmount)
		}
		if dto.HourlyRate != tt.rate || dto.LecturerName != "Ada Lovelace" || dto.LecturerID != lecturerID {
			t.Errorf("profile not snapshotted: %+v", dto)
		}
		if len(dto.ClaimID) != 32 {
			t.Errorf("claim id %q", dto.ClaimID)
		}
		if dto.DateSubmitted.Location() != time.UTC || dto.DateSubmitted.Hour() != 7 {
			t.Errorf("date not UTC: %v", dto.DateSubmitted)
		}
	}
}

func TestSubmit_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		in    SubmitInput
		field string
	}{
		{"hours too low", 500, SubmitInput{HoursWorked: 0}, "hours_worked"},
		{"hours too high", 500, SubmitInput{HoursWorked: 181}, "hours_worked"},
		{"rate from profile too low", 99, SubmitInput{HoursWorked: 10}, "hourly_rate"},
		{"rate from profile too high", 2001, SubmitInput{HoursWorked: 10}, "hourly_rate"},
		{"notes too long", 500, SubmitInput{HoursWorked: 10, Notes: strings.Repeat("é", 201)}, "notes"},
		{"invalid with document", 500, SubmitInput{HoursWorked: 0, File: &Upload{FileName: "a.pdf", Reader: strings.NewReader("x")}}, "hours_worked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.rate)
			_, err := f.uc.Submit(context.Background(), lecturer, tt.in)
			if !errors.Is(err, claim.ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
			var ve *claim.ValidationError
			if !errors.As(err, &ve) || ve.Fields[0].Field != tt.field {
				t.Fatalf("want field %s, got %v", tt.field, err)
			}
			if len(f.claims.rows) != 0 || f.blobs.Len() != 0 {
				t.Fatalf("nothing should be written")
			}
		})
	}
}

func TestSubmit_NotesAtLimit(t *testing.T) {
	f := newFixture(t, 500)
	if _, err := f.uc.Submit(context.Background(), lecturer, SubmitInput{HoursWorked: 10, Notes: strings.Repeat("é", 200)}); err != nil {
		t.Fatalf("200 characters should be accepted: %v", err)
	}
}

func TestSubmit_Unauthorized(t *testing.T) {
	for _, p := range []access.Principal{
		coordinator, manager, hr,
		{Role: access.RoleNone},
		{Role: access.RoleLecturer},
		{Role: access.RoleLecturer, UserID: "ffffffffffffffffffffffffffffffff"},
	} {
		f := newFixture(t, 500)
		if _, err := f.uc.Submit(context.Background(), p, SubmitInput{HoursWorked: 10}); !errors.Is(err, access.ErrUnauthorized) {
			t.Errorf("%+v: want ErrUnauthorized, got %v", p, err)
		}
		if len(f.claims.rows) != 0 {
			t.Errorf("%+v: claim written", p)
		}
	}
}

func TestSubmit_ProfileWithWrongRole(t *testing.T) {
	f := newFixture(t, 500)
	f.uc.users = &usermock.Repo{GetByUserIDFn: func(context.Context, string) (*user.User, error) {
		return &user.User{UserID: lecturerID, Role: access.RoleManager, HourlyRate: 500}, nil
	}}
	if _, err := f.uc.Submit(context.Background(), lecturer, SubmitInput{HoursWorked: 10}); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestSubmit_WithDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 500)
	payload := []byte("%PDF-1.4 timesheet")

	dto, err := f.uc.Submit(ctx, lecturer, SubmitInput{
		HoursWorked: 12,
		File:        &Upload{FileName: "march.pdf", Reader: bytes.NewReader(payload)},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !dto.HasDocument || dto.OriginalFileName != "march.pdf" {
		t.Fatalf("document not attached: %+v", dto)
	}
	if f.blobs.Len() != 1 || !strings.HasSuffix(f.blobs.Names()[0], ".pdf.enc") {
		t.Fatalf("blobs: %v", f.blobs.Names())
	}

	file, err := f.uc.FetchDocument(ctx, lecturer, dto.ClaimID)
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if !bytes.Equal(file.Data, payload) || file.ContentType != docuc.MIMEPDF || file.FileName != "march.pdf" {
		t.Fatalf("unexpected file: %q %s %s", file.Data, file.ContentType, file.FileName)
	}
}

func TestSubmit_RejectedDocumentWritesNothing(t *testing.T) {
	f := newFixture(t, 500)
	_, err := f.uc.Submit(context.Background(), lecturer, SubmitInput{
		HoursWorked: 12,
		File:        &Upload{FileName: "payload.exe", Reader: strings.NewReader("MZ")},
	})
	if !errors.Is(err, document.ErrUnsupportedFileType) {
		t.Fatalf("want ErrUnsupportedFileType, got %v", err)
	}
	if len(f.claims.rows) != 0 || f.blobs.Len() != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestSubmit_InsertFailureRemovesDocument(t *testing.T) {
	f := newFixture(t, 500)
	f.uc.uow = &uowmock.UoW{WithinTxFn: func(context.Context, func(uow.Repos) error) error {
		return errors.New("connection reset")
	}}

	_, err := f.uc.Submit(context.Background(), lecturer, SubmitInput{
		HoursWorked: 12,
		File:        &Upload{FileName: "a.docx", Reader: strings.NewReader("doc")},
	})
	if !errors.Is(err, claim.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
	if f.blobs.Len() != 0 {
		t.Fatalf("orphaned blob left behind: %v", f.blobs.Names())
	}
}

func TestWorkflow_PendingThroughBothReviewers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)

	dto, err := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: 10})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if dto.Status != string(claim.StatusPending) || !dto.StoredClaimAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected submission: %+v", dto)
	}
	id := dto.ClaimID

	if _, err := f.uc.Approve(ctx, manager, id); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("manager on Pending: want ErrUnauthorized, got %v", err)
	}
	if f.claims.status(id) != claim.StatusPending {
		t.Fatalf("status changed by refused call")
	}

	out, err := f.uc.Approve(ctx, coordinator, id)
	if err != nil || out.Status != string(claim.StatusCoordinatorApproved) {
		t.Fatalf("coordinator approve: %v %+v", err, out)
	}

	if _, err := f.uc.Approve(ctx, coordinator, id); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("coordinator on CoordinatorApproved: want ErrUnauthorized, got %v", err)
	}

	out, err = f.uc.Approve(ctx, manager, id)
	if err != nil || out.Status != string(claim.StatusApproved) {
		t.Fatalf("manager approve: %v %+v", err, out)
	}
	if !out.StoredClaimAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("stored amount changed: %s", out.StoredClaimAmount)
	}

	// repeat approve is a silent success
	out, err = f.uc.Approve(ctx, manager, id)
	if err != nil || out.Status != string(claim.StatusApproved) {
		t.Fatalf("duplicate approve: %v %+v", err, out)
	}
	if _, err := f.uc.Reject(ctx, manager, id); !errors.Is(err, claim.ErrInvalidTransition) {
		t.Fatalf("reject Approved: want ErrInvalidTransition, got %v", err)
	}
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		hours float64
		steps []access.Principal
	}{
		{"coordinator rejects pending", 10, nil},
		{"manager rejects coordinator approved", 10, []access.Principal{coordinator}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 200)
			dto, _ := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: tt.hours})
			for _, p := range tt.steps {
				if _, err := f.uc.Approve(ctx, p, dto.ClaimID); err != nil {
					t.Fatalf("setup approve: %v", err)
				}
			}
			reviewer := coordinator
			if len(tt.steps) > 0 {
				reviewer = manager
			}
			out, err := f.uc.Reject(ctx, reviewer, dto.ClaimID)
			if err != nil || out.Status != string(claim.StatusRejected) {
				t.Fatalf("reject: %v %+v", err, out)
			}
			if _, err := f.uc.Reject(ctx, reviewer, dto.ClaimID); err != nil {
				t.Fatalf("duplicate reject should succeed: %v", err)
			}
			if _, err := f.uc.Approve(ctx, reviewer, dto.ClaimID); !errors.Is(err, claim.ErrInvalidTransition) {
				t.Fatalf("approve Rejected: want ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestTransition_NonReviewerRefusedBeforeLookup(t *testing.T) {
	f := newFixture(t, 200)
	f.uc.uow = &uowmock.UoW{WithinClaimTxFn: func(context.Context, string, func(uow.Repos, *claim.Claim) error) error {
		t.Fatalf("storage must not be touched")
		return nil
	}}
	for _, p := range []access.Principal{lecturer, hr, {Role: access.RoleNone}} {
		if _, err := f.uc.Approve(context.Background(), p, "missing"); !errors.Is(err, access.ErrUnauthorized) {
			t.Errorf("approve as %s: %v", p.Role, err)
		}
		if _, err := f.uc.Reject(context.Background(), p, "missing"); !errors.Is(err, access.ErrUnauthorized) {
			t.Errorf("reject as %s: %v", p.Role, err)
		}
	}
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t, 200)
	if _, err := f.uc.Approve(context.Background(), coordinator, "nope"); !errors.Is(err, claim.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTransition_CompareAndSetConflict(t *testing.T) {
	pending := &claim.Claim{ClaimID: "C-1", Status: claim.StatusPending}
	claims := &claimmock.Repo{
		GetByClaimIDFn: func(context.Context, string) (*claim.Claim, error) { return pending, nil },
		UpdateStatusFn: func(_ context.Context, _ string, from, to claim.Status, _ time.Time) (bool, error) {
			if from != claim.StatusPending || to != claim.StatusCoordinatorApproved {
				t.Fatalf("unexpected CAS %s -> %s", from, to)
			}
			return false, nil
		},
	}
	uc := NewUsecase(claims, &usermock.Repo{}, uowmock.Passthrough(uow.Repos{Claims: claims}), nil, nil)
	if _, err := uc.Approve(context.Background(), coordinator, "C-1"); !errors.Is(err, claim.ErrStatusConflict) {
		t.Fatalf("want ErrStatusConflict, got %v", err)
	}
}

func TestTransition_StorageFailure(t *testing.T) {
	claims := &claimmock.Repo{
		GetByClaimIDFn: func(context.Context, string) (*claim.Claim, error) {
			return &claim.Claim{ClaimID: "C-1", Status: claim.StatusPending}, nil
		},
		UpdateStatusFn: func(context.Context, string, claim.Status, claim.Status, time.Time) (bool, error) {
			return false, errors.New("deadlock")
		},
	}
	uc := NewUsecase(claims, &usermock.Repo{}, uowmock.Passthrough(uow.Repos{Claims: claims}), nil, nil)
	if _, err := uc.Reject(context.Background(), coordinator, "C-1"); !errors.Is(err, claim.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)

	mine := []float64{10, 50, 12}
	for _, h := range mine {
		if _, err := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: h}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	other := access.Principal{Role: access.RoleLecturer, UserID: otherLectID}
	theirs, _ := f.uc.Submit(ctx, other, SubmitInput{HoursWorked: 5})
	if _, err := f.uc.Approve(ctx, coordinator, theirs.ClaimID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	t.Run("pending only", func(t *testing.T) {
		got, err := f.uc.List(ctx, coordinator, ListFilter{Status: "pending"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d pending", len(got))
		}
		for _, c := range got {
			if c.Status != string(claim.StatusPending) {
				t.Fatalf("non-pending claim listed: %+v", c)
			}
		}
		if got[0].HoursWorked != 12 {
			t.Fatalf("not newest first: %+v", got)
		}
	})

	t.Run("lecturer scoped to own claims", func(t *testing.T) {
		got, err := f.uc.List(ctx, lecturer, ListFilter{OwnerID: otherLectID})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != len(mine) {
			t.Fatalf("got %d claims", len(got))
		}
		for _, c := range got {
			if c.LecturerID != lecturerID {
				t.Fatalf("foreign claim listed: %+v", c)
			}
		}
	})

	t.Run("owner filter for reviewers", func(t *testing.T) {
		got, _ := f.uc.List(ctx, hr, ListFilter{OwnerID: otherLectID})
		if len(got) != 1 || got[0].Status != string(claim.StatusCoordinatorApproved) {
			t.Fatalf("unexpected: %+v", got)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		if _, err := f.uc.List(ctx, hr, ListFilter{Status: "Archived"}); !errors.Is(err, claim.ErrValidation) {
			t.Fatalf("want ErrValidation, got %v", err)
		}
	})

	t.Run("no role", func(t *testing.T) {
		if _, err := f.uc.List(ctx, access.Principal{}, ListFilter{}); !errors.Is(err, access.ErrUnauthorized) {
			t.Fatalf("want ErrUnauthorized, got %v", err)
		}
	})
}

func TestGet_LecturerCannotSeeOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	dto, _ := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: 10})

	other := access.Principal{Role: access.RoleLecturer, UserID: otherLectID}
	if _, err := f.uc.Get(ctx, other, dto.ClaimID); !errors.Is(err, claim.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := f.uc.FetchDocument(ctx, other, dto.ClaimID); !errors.Is(err, claim.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if got, err := f.uc.Get(ctx, manager, dto.ClaimID); err != nil || got.ClaimID != dto.ClaimID {
		t.Fatalf("manager Get: %v", err)
	}
}

func TestFetchDocument_NoDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	dto, _ := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: 10})
	if _, err := f.uc.FetchDocument(ctx, hr, dto.ClaimID); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("want document.ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	dto, _ := f.uc.Submit(ctx, lecturer, SubmitInput{
		HoursWorked: 10,
		File:        &Upload{FileName: "a.xlsx", Reader: strings.NewReader("sheet")},
	})

	if err := f.uc.Delete(ctx, coordinator, dto.ClaimID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("coordinator delete: want ErrUnauthorized, got %v", err)
	}
	if err := f.uc.Delete(ctx, hr, dto.ClaimID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.claims.rows) != 0 || f.blobs.Len() != 0 {
		t.Fatalf("claim or blob left behind")
	}
	if err := f.uc.Delete(ctx, hr, dto.ClaimID); !errors.Is(err, claim.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestDelete_MissingBlobIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	dto, _ := f.uc.Submit(ctx, lecturer, SubmitInput{
		HoursWorked: 10,
		File:        &Upload{FileName: "a.pdf", Reader: strings.NewReader("pdf")},
	})
	for _, n := range f.blobs.Names() {
		_ = f.blobs.Delete(ctx, n)
	}
	if err := f.uc.Delete(ctx, hr, dto.ClaimID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	for _, h := range []float64{50, 60, 10, 5} {
		if _, err := f.uc.Submit(ctx, lecturer, SubmitInput{HoursWorked: h}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	if _, err := f.uc.Stats(ctx, manager); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("manager stats: want ErrUnauthorized, got %v", err)
	}
	s, err := f.uc.Stats(ctx, hr)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.TotalClaims != 4 || s.ByStatus["Approved"] != 2 || s.ByStatus["Pending"] != 2 || s.ByStatus["Rejected"] != 0 {
		t.Fatalf("counts: %+v", s)
	}
	if !s.ApprovedAmount.Equal(decimal.NewFromInt(22000)) {
		t.Fatalf("approved amount %s", s.ApprovedAmount)
	}
	if s.Lecturers != 2 || s.TotalUsers != 5 {
		t.Fatalf("lecturers %d, users %d", s.Lecturers, s.TotalUsers)
	}

	f.users.CountFn = func(context.Context) (int64, error) { return 0, errors.New("connection reset") }
	if _, err := f.uc.Stats(ctx, hr); !errors.Is(err, claim.ErrStorage) {
		t.Fatalf("users count failure: want ErrStorage, got %v", err)
	}
}
