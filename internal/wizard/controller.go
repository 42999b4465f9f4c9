package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vetting/internal/sections/evaluator"
	"vetting/internal/sections/models"
	verificationmodels "vetting/internal/verification/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/debounce"
)

// DefaultAutosaveDelay is the input inactivity window before a section save.
const DefaultAutosaveDelay = 500 * time.Millisecond

// Controller holds a wizard State and keeps the persisted sections in step
// with it. Section drafts are saved after a quiet period, flushed on step
// changes and on Close. Safe for concurrent use.
type Controller struct {
	gateway Gateway
	logger  *slog.Logger
	delay   time.Duration
	ctx     context.Context

	mu     sync.Mutex
	state  State
	seeded seeded
	// latest save outcome per section; a later success clears only its own
	errs map[string]error

	personal  *debounce.Debouncer[models.PersonalInfoRequest]
	education *debounce.Debouncer[models.EducationRequest]
	jobs      *debounce.Debouncer[models.JobHistoryRequest]
	document  *debounce.Debouncer[documentChange]
	autosaver *DocumentAutosaver
}

const (
	sectionPersonalInfo = "personal_info"
	sectionEducation    = "education"
	sectionJobHistory   = "job_history"
	sectionDocument     = "document"
)

var sectionOrder = []string{sectionPersonalInfo, sectionEducation, sectionJobHistory, sectionDocument}

type seeded struct {
	personal  bool
	education bool
	jobs      bool
	document  bool
}

type documentChange struct {
	docType models.DocumentType
	front   string
	back    string
}

type ControllerOption func(*Controller)

func WithAutosaveDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController binds a wizard to gateway. Debounced saves run with ctx.
func NewController(ctx context.Context, userType id.UserType, gateway Gateway, opts ...ControllerOption) *Controller {
	c := &Controller{
		gateway: gateway,
		logger:  slog.Default(),
		delay:   DefaultAutosaveDelay,
		ctx:     ctx,
		state:   NewState(userType),
		errs:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.autosaver = NewDocumentAutosaver(gateway.SaveDocumentDraft)
	c.personal = debounce.New(c.delay, func(req models.PersonalInfoRequest) {
		c.record(sectionPersonalInfo, gateway.SavePersonalInfo(c.ctx, &req))
	})
	c.education = debounce.New(c.delay, func(req models.EducationRequest) {
		c.record(sectionEducation, gateway.SaveEducation(c.ctx, &req))
	})
	c.jobs = debounce.New(c.delay, func(req models.JobHistoryRequest) {
		c.record(sectionJobHistory, gateway.ReplaceJobHistory(c.ctx, &req))
	})
	c.document = debounce.New(c.delay, func(change documentChange) {
		_, err := c.autosaver.Save(c.ctx, change.docType, change.front, change.back)
		c.record(sectionDocument, err)
	})
	return c
}

// Init loads persisted sections and seeds each draft at most once. Sections
// the user has already edited locally are left alone.
func (c *Controller) Init(ctx context.Context) (*models.Sections, error) {
	sections, err := c.gateway.LoadSections(ctx)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return &models.Sections{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if !c.seeded.personal && s.PersonalInfo.Data == nil && sections.PersonalInfo != nil {
		data := personalInfoRequest(sections.PersonalInfo)
		s.PersonalInfo.Data = &data
		s.PersonalInfo.Valid = sections.PersonalInfo.IsComplete()
		c.seeded.personal = true
	}
	if !c.seeded.education && s.Education.Data == nil && sections.Education != nil {
		data := educationRequest(sections.Education)
		s.Education.Data = &data
		s.Education.Valid = sections.Education.IsComplete()
		c.seeded.education = true
	}
	if !c.seeded.jobs && s.JobHistory.Data == nil && len(sections.JobHistory) > 0 {
		data := jobHistoryRequest(sections.JobHistory)
		s.JobHistory.Data = &data
		s.JobHistory.Valid = true
		c.seeded.jobs = true
	}
	if !c.seeded.document && sections.Document != nil && s.Front.Status == UploadIdle && s.Back.Status == UploadIdle {
		doc := sections.Document
		s.DocumentType = doc.DocumentType
		s.Front = persistedUpload(doc.FrontImageURL)
		s.Back = persistedUpload(doc.BackImageURL)
		c.autosaver.Prime(s.Front.URL, s.Back.URL)
		c.seeded.document = true
	}
	c.state = s
	return sections, nil
}

// Resume seeds the wizard and jumps to the first incomplete step.
func (c *Controller) Resume(ctx context.Context) (models.Completeness, error) {
	sections, err := c.Init(ctx)
	if err != nil {
		return models.Completeness{}, err
	}
	userType := c.State().UserType
	completeness := evaluator.Evaluate(*sections, userType)
	c.Dispatch(SetStep{Step: ResumeStep(userType, completeness)})
	return completeness, nil
}

// Dispatch reduces action into the state and schedules the saves it implies.
func (c *Controller) Dispatch(action Action) State {
	c.mu.Lock()
	prev := c.state
	next := Reduce(prev, action)
	c.state = next
	c.mu.Unlock()

	switch a := action.(type) {
	case SetPersonalInfoData:
		c.personal.Call(a.Data)
	case SetEducationData:
		c.education.Call(a.Data)
	case SetJobHistoryData:
		c.jobs.Call(a.Data)
	case SetUpload, SetDocumentType:
		if documentChanged(prev, next) {
			c.document.Call(documentChange{
				docType: next.DocumentType,
				front:   successURL(next.Front),
				back:    successURL(next.Back),
			})
		}
	}

	if prev.Current != next.Current {
		c.Flush()
	}
	return next
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanContinue reports the gating rule for the current step.
func (c *Controller) CanContinue() bool {
	return CanContinue(c.State())
}

// Flush runs every pending save now.
func (c *Controller) Flush() {
	c.personal.Flush()
	c.education.Flush()
	c.jobs.Flush()
	c.document.Flush()
}

// Err joins the failures of every section whose latest save failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, section := range sectionOrder {
		if err := c.errs[section]; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Submit flushes drafts and submits the document for review. Only allowed
// from the review step.
func (c *Controller) Submit(ctx context.Context) (*verificationmodels.Record, error) {
	s := c.State()
	if s.Current != StepReview {
		return nil, dErrors.New(dErrors.CodeValidation, "submission is only possible from the review step")
	}
	c.Flush()
	if err := c.Err(); err != nil {
		return nil, err
	}
	req := &verificationmodels.SubmitRequest{
		DocumentType:  string(s.DocumentType),
		FrontImageURL: successURL(s.Front),
	}
	if back := successURL(s.Back); back != "" {
		req.BackImageURL = &back
	}
	return c.gateway.Submit(ctx, req)
}

// Close flushes pending saves and stops accepting new ones.
func (c *Controller) Close() {
	c.personal.Stop()
	c.education.Stop()
	c.jobs.Stop()
	c.document.Stop()
}

func (c *Controller) record(section string, err error) {
	c.mu.Lock()
	if err != nil {
		c.errs[section] = err
	} else {
		delete(c.errs, section)
	}
	c.mu.Unlock()
	if err != nil {
		c.logger.WarnContext(c.ctx, "wizard autosave failed",
			"section", section,
			"error", err,
		)
	}
}

// documentChanged reports a side newly reaching success with a different URL,
// or a type change while an image is present.
func documentChanged(prev, next State) bool {
	if next.Front.Status == UploadSuccess && (prev.Front.Status != UploadSuccess || prev.Front.URL != next.Front.URL) {
		return true
	}
	if next.Back.Status == UploadSuccess && (prev.Back.Status != UploadSuccess || prev.Back.URL != next.Back.URL) {
		return true
	}
	hasImage := next.Front.Status == UploadSuccess || next.Back.Status == UploadSuccess
	return hasImage && prev.DocumentType != next.DocumentType
}

func successURL(u Upload) string {
	if u.Status != UploadSuccess {
		return ""
	}
	return u.URL
}

func persistedUpload(url *string) Upload {
	if url == nil || *url == "" {
		return Upload{}
	}
	return Upload{Status: UploadSuccess, Progress: 100, URL: *url}
}

func personalInfoRequest(p *models.PersonalInfo) models.PersonalInfoRequest {
	req := models.PersonalInfoRequest{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Address:   p.Address,
	}
	if p.DateOfBirth != nil {
		req.DateOfBirth = p.DateOfBirth.Format(time.DateOnly)
	}
	return req
}

func educationRequest(e *models.Education) models.EducationRequest {
	return models.EducationRequest{
		Level:          string(e.Level),
		SchoolName:     e.SchoolName,
		Degree:         e.Degree,
		FieldOfStudy:   e.FieldOfStudy,
		GraduationYear: e.GraduationYear,
	}
}

func jobHistoryRequest(jobs []models.JobEntry) models.JobHistoryRequest {
	out := models.JobHistoryRequest{Jobs: make([]models.JobEntryRequest, 0, len(jobs))}
	for _, j := range jobs {
		entry := models.JobEntryRequest{
			Company:     j.Company,
			Title:       j.Title,
			Current:     j.Current,
			Description: j.Description,
		}
		if j.StartDate != nil {
			entry.StartDate = j.StartDate.Format(time.DateOnly)
		}
		if j.EndDate != nil {
			entry.EndDate = j.EndDate.Format(time.DateOnly)
		}
		out.Jobs = append(out.Jobs, entry)
	}
	return out
}
