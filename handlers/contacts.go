package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/services"
)

type Contacts struct {
	Service      *services.Contacts
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID string `json:"id" readOnly:"true" example:"06BQ5H7TV1NO1DA4LSJG4U46S4"`

	Name        string    `json:"name"        example:"Ava"`
	Phone       string    `json:"phone"       example:"9998887777"`
	Email       string    `json:"email"       example:"ava@example.com"`
	SaveTo      ds.SaveTo `json:"saveTo"      example:"phone" enum:"phone,sim1"`
	IsFavourite bool      `json:"isFavourite"`
	IsBlocked   bool      `json:"isBlocked"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		SaveTo:      c.SaveTo,
		IsFavourite: c.IsFavourite,
		IsBlocked:   c.IsBlocked,
	}
}

func contactModels(contacts []ds.Contact) []ContactModel {
	body := make([]ContactModel, 0, len(contacts))
	for i := range contacts {
		body = append(body, contactModel(&contacts[i]))
	}
	return body
}

type ContactsListOutput struct {
	Body []ContactModel
}

type ContactOutput struct {
	Body ContactModel
}

type ContactIDInput struct {
	ID string `path:"id" doc:"ID of the contact"`
}

func (h *Contacts) RegisterListActive(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts",
		withErrors(h.listActive, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Contacts) listActive(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Service.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: contactModels(contacts)}, nil
}

func (h *Contacts) RegisterListDeleted(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/deleted",
		withErrors(h.listDeleted, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Contacts) listDeleted(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Service.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: contactModels(contacts)}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/{id}",
		withErrors(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable),
	)
}

func (h *Contacts) get(ctx context.Context, input *ContactIDInput) (*ContactOutput, error) {
	contact, err := h.Service.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts",
		withErrors(h.create, h.ErrorHandler),
		opErrors(http.StatusUnprocessableEntity, http.StatusServiceUnavailable),
	)
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body struct {
		Name   string    `json:"name"             example:"Ava"             minLength:"1"`
		Phone  string    `json:"phone"            example:"9998887777"      minLength:"1"`
		Email  string    `json:"email,omitempty"  example:"ava@example.com"`
		SaveTo ds.SaveTo `json:"saveTo,omitempty" example:"phone"           enum:"phone,sim1" default:"phone"`
	}
}) (*ContactOutput, error) {
	contact, err := h.Service.Create(ctx, services.CreateParams{
		Name:   input.Body.Name,
		Phone:  input.Body.Phone,
		Email:  input.Body.Email,
		SaveTo: input.Body.SaveTo,
	})
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterUpdate(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/contacts/{id}",
		withErrors(h.update, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusServiceUnavailable),
	)
}

func (h *Contacts) update(ctx context.Context, input *struct {
	ContactIDInput
	Body struct {
		ID          string     `json:"id,omitempty"          doc:"Ignored, ids are immutable"`
		Name        *string    `json:"name,omitempty"        example:"Ava"`
		Phone       *string    `json:"phone,omitempty"       example:"9998887777"`
		Email       *string    `json:"email,omitempty"       example:"ava@example.com"`
		SaveTo      *ds.SaveTo `json:"saveTo,omitempty"      example:"phone" enum:"phone,sim1"`
		IsFavourite *bool      `json:"isFavourite,omitempty"`
		IsBlocked   *bool      `json:"isBlocked,omitempty"`
	}
}) (*ContactOutput, error) {
	contact, err := h.Service.Update(ctx, input.ID, services.UpdateParams{
		Name:        input.Body.Name,
		Phone:       input.Body.Phone,
		Email:       input.Body.Email,
		SaveTo:      input.Body.SaveTo,
		IsFavourite: input.Body.IsFavourite,
		IsBlocked:   input.Body.IsBlocked,
	})
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDelete(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/contacts/{id}",
		withErrors(h.del, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable),
	)
}

type ContactsDeleteOutput struct {
	Body struct {
		Success bool         `json:"success" example:"true"`
		Deleted ContactModel `json:"deleted"`
	}
}

func (h *Contacts) del(ctx context.Context, input *ContactIDInput) (*ContactsDeleteOutput, error) {
	contact, err := h.Service.Delete(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &ContactsDeleteOutput{}
	out.Body.Success = true
	out.Body.Deleted = contactModel(contact)
	return out, nil
}

func (h *Contacts) RegisterRestore(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts/restore/{id}",
		withErrors(h.restore, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable),
	)
}

type ContactsRestoreOutput struct {
	Body struct {
		Success bool         `json:"success" example:"true"`
		Contact ContactModel `json:"contact"`
	}
}

func (h *Contacts) restore(ctx context.Context, input *ContactIDInput) (*ContactsRestoreOutput, error) {
	contact, err := h.Service.Restore(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &ContactsRestoreOutput{}
	out.Body.Success = true
	out.Body.Contact = contactModel(contact)
	return out, nil
}
