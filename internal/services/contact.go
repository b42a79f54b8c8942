package services

import (
	"context"
	"log"
	"strings"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/domain"
	"sitepulse/internal/metrics"
	"sitepulse/internal/store"
)

// ContactInput is a contact-form submission
type ContactInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email,max=254"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Company     *string `json:"company" validate:"omitempty,max=100"`
	ProjectType *string `json:"projectType" validate:"omitempty,max=50"`
	Budget      *string `json:"budget" validate:"omitempty,max=50"`
	Timeline    *string `json:"timeline" validate:"omitempty,max=50"`
	Message     string  `json:"message" validate:"required,max=2000"`
}

func (in *ContactInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Message = strings.TrimSpace(in.Message)
	in.Phone = trim(in.Phone)
	in.Company = trim(in.Company)
	in.ProjectType = trim(in.ProjectType)
	in.Budget = trim(in.Budget)
	in.Timeline = trim(in.Timeline)
}

// ContactStatusInput is an admin update of a contact's workflow state
type ContactStatusInput struct {
	Status string  `json:"status" validate:"required,oneof=new in_progress completed cancelled"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

// SubmitContact stores a new contact with status new and notifies the admin
// in the background.
func (s *InteractionService) SubmitContact(ctx context.Context, in ContactInput) (*Envelope, error) {
	in.normalize()
	log.Printf("[CONTACT] Submit request: name=%s, email=%s", in.Name, in.Email)

	if err := s.check(&in); err != nil {
		log.Printf("[CONTACT] Submit failed: %v", err)
		return nil, err
	}

	c := &domain.Contact{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Company:     in.Company,
		ProjectType: in.ProjectType,
		Budget:      in.Budget,
		Timeline:    in.Timeline,
		Message:     in.Message,
		Status:      domain.ContactStatusNew,
	}
	err := s.run(ctx, "contact.create", func(ctx context.Context) error {
		return s.store.CreateContact(ctx, c)
	})
	if err != nil {
		return nil, translate("CONTACT", "contact.create", err, "")
	}

	log.Printf("[CONTACT] Submit successful: id=%s, email=%s", c.ID, c.Email)
	metrics.RecordContactSubmission()

	if s.notifier != nil {
		submitted := *c
		go func() {
			if err := s.notifier.NotifyNewContact(&submitted); err != nil {
				log.Printf("[CONTACT] Warning: failed to send notification for id=%s: %v", submitted.ID, err)
			}
		}()
	}

	return ok(c).withMessage("Thank you for contacting us! We'll get back to you soon."), nil
}

// GetContact loads one contact
func (s *InteractionService) GetContact(ctx context.Context, id string) (*Envelope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidField("id", "is required")
	}

	var c *domain.Contact
	err := s.run(ctx, "contact.get", func(ctx context.Context) (err error) {
		c, err = s.store.GetContact(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate("CONTACT", "contact.get", err, "contact not found")
	}
	return ok(c), nil
}

// UpdateContactStatus changes a contact's status. Notes are replaced only
// when provided.
func (s *InteractionService) UpdateContactStatus(ctx context.Context, id string, in ContactStatusInput) (*Envelope, error) {
	id = strings.TrimSpace(id)
	in.Status = strings.TrimSpace(in.Status)
	log.Printf("[CONTACT] Update status request: id=%s, status=%s", id, in.Status)

	if id == "" {
		return nil, apperrors.InvalidField("id", "is required")
	}
	if err := s.check(&in); err != nil {
		log.Printf("[CONTACT] Update status failed: %v", err)
		return nil, err
	}

	status := domain.ContactStatus(in.Status)
	patch := store.ContactPatch{Status: &status}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		patch.Notes = &notes
	}

	var c *domain.Contact
	err := s.run(ctx, "contact.update", func(ctx context.Context) (err error) {
		c, err = s.store.UpdateContact(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, translate("CONTACT", "contact.update", err, "contact not found")
	}

	log.Printf("[CONTACT] Update status successful: id=%s, status=%s", c.ID, c.Status)
	return ok(c), nil
}

// DeleteContact removes a contact. Deleting an unknown id reports
// deleted=false rather than an error.
func (s *InteractionService) DeleteContact(ctx context.Context, id string) (*Envelope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidField("id", "is required")
	}

	var deleted bool
	err := s.run(ctx, "contact.delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.DeleteContact(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate("CONTACT", "contact.delete", err, "")
	}

	log.Printf("[CONTACT] Delete: id=%s, deleted=%t", id, deleted)
	return ok(map[string]bool{"deleted": deleted}), nil
}

// ListContacts filters by status, projectType (alias source) and a search
// term over name, email and company.
func (s *InteractionService) ListContacts(ctx context.Context, p Params) (*Envelope, error) {
	var pe paramErrors
	page := pe.page(p)
	f := store.ContactFilter{
		ProjectType: p.get("projectType", "source"),
		Search:      p.get("search"),
	}
	if raw := p.get("status"); raw != "" {
		f.Status = domain.ContactStatus(raw)
		if !f.Status.Valid() {
			pe.add("status", "must be one of: new, in_progress, completed, cancelled")
		}
	}
	if err := pe.err(); err != nil {
		return nil, err
	}

	var res *store.PageResult[domain.Contact]
	err := s.run(ctx, "contact.list", func(ctx context.Context) (err error) {
		res, err = s.store.ListContacts(ctx, f, page)
		return err
	})
	if err != nil {
		return nil, translate("CONTACT", "contact.list", err, "")
	}

	log.Printf("[CONTACT] List successful: returned %d of %d", len(res.Data), res.Count)
	return pageExtras(ok(res.Data), res.Count, res.Page, res.Limit, res.TotalPages), nil
}
