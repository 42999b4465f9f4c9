package wizard

import (
	"context"

	"vetting/internal/sections/models"
	verificationmodels "vetting/internal/verification/models"
	id "vetting/pkg/domain"
)

// Gateway is everything the wizard reads and writes.
type Gateway interface {
	LoadSections(ctx context.Context) (*models.Sections, error)
	SavePersonalInfo(ctx context.Context, req *models.PersonalInfoRequest) error
	SaveEducation(ctx context.Context, req *models.EducationRequest) error
	ReplaceJobHistory(ctx context.Context, req *models.JobHistoryRequest) error
	SaveDocumentDraft(ctx context.Context, draft models.DocumentDraft) error
	Submit(ctx context.Context, req *verificationmodels.SubmitRequest) (*verificationmodels.Record, error)
}

type SectionService interface {
	Get(ctx context.Context, userID id.UserID) (*models.Sections, error)
	SavePersonalInfo(ctx context.Context, userID id.UserID, req *models.PersonalInfoRequest) (*models.PersonalInfo, error)
	SaveEducation(ctx context.Context, userID id.UserID, req *models.EducationRequest) (*models.Education, error)
	ReplaceJobHistory(ctx context.Context, userID id.UserID, req *models.JobHistoryRequest) ([]models.JobEntry, error)
	SaveDocumentDraft(ctx context.Context, userID id.UserID, draft models.DocumentDraft) (*models.IdentityDocument, error)
}

type VerificationService interface {
	Submit(ctx context.Context, caller id.Caller, userID id.UserID, req *verificationmodels.SubmitRequest) (*verificationmodels.Record, error)
}

// LocalGateway calls the services in-process on behalf of one caller.
type LocalGateway struct {
	caller       id.Caller
	sections     SectionService
	verification VerificationService
}

func NewLocalGateway(caller id.Caller, sections SectionService, verification VerificationService) *LocalGateway {
	return &LocalGateway{caller: caller, sections: sections, verification: verification}
}

func (g *LocalGateway) LoadSections(ctx context.Context) (*models.Sections, error) {
	return g.sections.Get(ctx, g.caller.UserID)
}

func (g *LocalGateway) SavePersonalInfo(ctx context.Context, req *models.PersonalInfoRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := g.sections.SavePersonalInfo(ctx, g.caller.UserID, req)
	return err
}

func (g *LocalGateway) SaveEducation(ctx context.Context, req *models.EducationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := g.sections.SaveEducation(ctx, g.caller.UserID, req)
	return err
}

func (g *LocalGateway) ReplaceJobHistory(ctx context.Context, req *models.JobHistoryRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := g.sections.ReplaceJobHistory(ctx, g.caller.UserID, req)
	return err
}

func (g *LocalGateway) SaveDocumentDraft(ctx context.Context, draft models.DocumentDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	_, err := g.sections.SaveDocumentDraft(ctx, g.caller.UserID, draft)
	return err
}

func (g *LocalGateway) Submit(ctx context.Context, req *verificationmodels.SubmitRequest) (*verificationmodels.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return g.verification.Submit(ctx, g.caller, g.caller.UserID, req)
}
