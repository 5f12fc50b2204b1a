package claim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmcs-backend/internal/domain/access"
	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/document"
	"cmcs-backend/internal/domain/uow"
	"cmcs-backend/internal/domain/user"
	"cmcs-backend/pkg/id"
)

// Documents is the slice of the document store the workflow needs.
type Documents interface {
	StoreReader(ctx context.Context, claimID string, r io.Reader, originalFileName string) (document.Ref, error)
	Open(ctx context.Context, ref document.Ref) (*document.File, error)
	Delete(ctx context.Context, storedName string) error
}

type Usecase struct {
	claims claim.Repository
	users  user.Repository
	uow    uow.UnitOfWork
	docs   Documents
	log    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewUsecase(claims claim.Repository, users user.Repository, tx uow.UnitOfWork, docs Documents, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		claims: claims,
		users:  users,
		uow:    tx,
		docs:   docs,
		log:    log,
		now:    time.Now,
		newID:  id.NewID32,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, claim.ErrNotFound)
}

// storageErr keeps domain errors as they are and folds everything else into
// claim.ErrStorage.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return claim.ErrNotFound
	case errors.Is(err, access.ErrUnauthorized),
		errors.Is(err, claim.ErrValidation),
		errors.Is(err, claim.ErrInvalidTransition),
		errors.Is(err, claim.ErrStatusConflict),
		errors.Is(err, claim.ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %v", claim.ErrStorage, err)
	}
}

// Submit creates a claim for the calling lecturer. Rate and name come from the
// lecturer's profile, never from the input.
func (u *Usecase) Submit(ctx context.Context, p access.Principal, in SubmitInput) (*ClaimDTO, error) {
	if err := p.Authorize(access.ActionSubmit); err != nil {
		return nil, err
	}

	lecturer, err := u.users.GetByUserID(ctx, p.UserID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, user.ErrNotFound):
		return nil, access.ErrUnauthorized
	default:
		return nil, storageErr(err)
	}
	if lecturer.Role != access.RoleLecturer {
		return nil, access.ErrUnauthorized
	}

	c, err := claim.New(claim.NewClaimInput{
		ClaimID:      u.newID(),
		LecturerID:   lecturer.UserID,
		LecturerName: lecturer.FullName(),
		HoursWorked:  in.HoursWorked,
		HourlyRate:   lecturer.HourlyRate,
		Notes:        in.Notes,
		SubmittedAt:  u.now(),
	})
	if err != nil {
		return nil, err
	}

	if in.File != nil {
		ref, err := u.docs.StoreReader(ctx, c.ClaimID, in.File.Reader, in.File.FileName)
		if err != nil {
			return nil, err
		}
		c.AttachDocument(ref.StoredName, ref.OriginalFileName)
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Claims.Create(ctx, c)
	})
	if err != nil {
		u.log.Error("insert claim", zap.String("claim_id", c.ClaimID), zap.Error(err))
		if stored, _, ok := c.DocumentRef(); ok {
			if derr := u.docs.Delete(ctx, stored); derr != nil && !errors.Is(derr, document.ErrNotFound) {
				u.log.Warn("remove document of failed claim",
					zap.String("claim_id", c.ClaimID),
					zap.String("stored_name", stored),
					zap.Error(derr))
			}
		}
		return nil, storageErr(err)
	}

	u.log.Info("claim submitted",
		zap.String("claim_id", c.ClaimID),
		zap.String("lecturer_id", c.LecturerID),
		zap.String("status", string(c.Status)),
		zap.Bool("has_document", c.HasDocument()))
	return toDTO(c), nil
}

func (u *Usecase) Approve(ctx context.Context, p access.Principal, claimID string) (*ClaimDTO, error) {
	return u.transition(ctx, p, claimID, access.ActionApprove)
}

func (u *Usecase) Reject(ctx context.Context, p access.Principal, claimID string) (*ClaimDTO, error) {
	return u.transition(ctx, p, claimID, access.ActionReject)
}

// transition refuses non-reviewers before touching storage, then moves the
// claim with a compare-and-set on its current status.
func (u *Usecase) transition(ctx context.Context, p access.Principal, claimID string, action access.Action) (*ClaimDTO, error) {
	if !p.Role.Reviewer() {
		return nil, access.ErrUnauthorized
	}
	if err := p.Authorize(action); err != nil {
		return nil, err
	}

	var dto *ClaimDTO
	err := u.uow.WithinClaimTx(ctx, claimID, func(r uow.Repos, c *claim.Claim) error {
		to, noop, err := claim.Next(c.Status, action, p.Role)
		if err != nil {
			return err
		}
		if noop {
			dto = toDTO(c)
			return nil
		}

		from := c.Status
		at := u.now().UTC()
		ok, err := r.Claims.UpdateStatus(ctx, c.ClaimID, from, to, at)
		if err != nil {
			return fmt.Errorf("%w: %v", claim.ErrStorage, err)
		}
		if !ok {
			return claim.ErrStatusConflict
		}
		c.Status = to
		c.StatusUpdatedAt = at

		u.log.Info("claim status changed",
			zap.String("claim_id", c.ClaimID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("role", string(p.Role)))
		dto = toDTO(c)
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return dto, nil
}

// List returns claims newest first. Lecturers only ever get their own.
func (u *Usecase) List(ctx context.Context, p access.Principal, f ListFilter) ([]ClaimDTO, error) {
	if err := p.Authorize(access.ActionList); err != nil {
		return nil, err
	}

	var status claim.Status
	if f.Status != "" {
		s, ok := claim.ParseStatus(f.Status)
		if !ok {
			return nil, &claim.ValidationError{Fields: []claim.FieldError{{Field: "status", Message: "unknown status"}}}
		}
		status = s
	}

	rows, err := u.claims.List(ctx, claim.Filter{Status: status, LecturerID: p.ScopeOwner(f.OwnerID)})
	if err != nil {
		return nil, storageErr(err)
	}
	out := make([]ClaimDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

// load fetches a claim the principal may see; anything else reads as not found.
func (u *Usecase) load(ctx context.Context, p access.Principal, claimID string) (*claim.Claim, error) {
	c, err := u.claims.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !p.CanSee(c.LecturerID) {
		return nil, claim.ErrNotFound
	}
	return c, nil
}

func (u *Usecase) Get(ctx context.Context, p access.Principal, claimID string) (*ClaimDTO, error) {
	if err := p.Authorize(access.ActionList); err != nil {
		return nil, err
	}
	c, err := u.load(ctx, p, claimID)
	if err != nil {
		return nil, err
	}
	return toDTO(c), nil
}

// FetchDocument decrypts the claim's supporting document.
func (u *Usecase) FetchDocument(ctx context.Context, p access.Principal, claimID string) (*document.File, error) {
	if err := p.Authorize(access.ActionViewDocument); err != nil {
		return nil, err
	}
	c, err := u.load(ctx, p, claimID)
	if err != nil {
		return nil, err
	}
	stored, orig, ok := c.DocumentRef()
	if !ok {
		return nil, document.ErrNotFound
	}
	return u.docs.Open(ctx, document.Ref{StoredName: stored, OriginalFileName: orig})
}

// Delete removes the claim row, then its document blob.
func (u *Usecase) Delete(ctx context.Context, p access.Principal, claimID string) error {
	if err := p.Authorize(access.ActionDelete); err != nil {
		return err
	}

	var stored string
	var hasDoc bool
	err := u.uow.WithinClaimTx(ctx, claimID, func(r uow.Repos, c *claim.Claim) error {
		stored, _, hasDoc = c.DocumentRef()
		return r.Claims.Delete(ctx, c.ClaimID)
	})
	if err != nil {
		return storageErr(err)
	}
	u.log.Info("claim deleted", zap.String("claim_id", claimID), zap.String("role", string(p.Role)))

	if !hasDoc {
		return nil
	}
	if err := u.docs.Delete(ctx, stored); err != nil && !errors.Is(err, document.ErrNotFound) {
		u.log.Error("remove document of deleted claim",
			zap.String("claim_id", claimID),
			zap.String("stored_name", stored),
			zap.Error(err))
	}
	return nil
}

// Stats is the HR dashboard summary.
func (u *Usecase) Stats(ctx context.Context, p access.Principal) (*StatsDTO, error) {
	if err := p.Authorize(access.ActionReport); err != nil {
		return nil, err
	}

	counts, err := u.claims.CountByStatus(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	approved, err := u.claims.SumStoredAmount(ctx, claim.StatusApproved)
	if err != nil {
		return nil, storageErr(err)
	}
	lecturers, err := u.users.CountByRole(ctx, access.RoleLecturer)
	if err != nil {
		return nil, storageErr(err)
	}
	total, err := u.users.Count(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	out := &StatsDTO{
		ByStatus:       make(map[string]int64, len(claim.Statuses)),
		ApprovedAmount: approved,
		Lecturers:      lecturers,
		TotalUsers:     total,
	}
	for _, s := range claim.Statuses {
		out.ByStatus[string(s)] = counts[s]
		out.TotalClaims += counts[s]
	}
	return out, nil
}
