package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/huma-phonebook/services"
)

// Favourites, blocked and sections are derived from the active contacts on
// every request.

func (h *Contacts) RegisterSections(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/sections",
		withErrors(h.sections, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

type SectionModel struct {
	Letter   string         `json:"letter" example:"A"`
	Contacts []ContactModel `json:"contacts"`
}

type ContactsSectionsOutput struct {
	Body []SectionModel
}

func (h *Contacts) sections(ctx context.Context, _ *struct{}) (*ContactsSectionsOutput, error) {
	contacts, err := h.Service.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	sections := services.Sections(contacts)
	body := make([]SectionModel, 0, len(sections))
	for _, s := range sections {
		body = append(body, SectionModel{Letter: s.Letter, Contacts: contactModels(s.Contacts)})
	}
	return &ContactsSectionsOutput{Body: body}, nil
}

func (h *Contacts) RegisterFavourites(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/favourites",
		withErrors(h.favourites, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Contacts) favourites(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Service.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: contactModels(services.Favourites(contacts))}, nil
}

func (h *Contacts) RegisterBlocked(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/blocked",
		withErrors(h.blocked, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Contacts) blocked(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Service.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &ContactsListOutput{Body: contactModels(services.Blocked(contacts))}, nil
}

func (h *Contacts) RegisterToggleFavourite(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/favourites/{id}",
		withErrors(h.toggleFavourite, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable),
	)
}

func (h *Contacts) toggleFavourite(ctx context.Context, input *ContactIDInput) (*ContactOutput, error) {
	contact, err := h.Service.ToggleFavourite(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterToggleBlock(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/blocked/{id}",
		withErrors(h.toggleBlock, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable),
	)
}

func (h *Contacts) toggleBlock(ctx context.Context, input *ContactIDInput) (*ContactOutput, error) {
	contact, err := h.Service.ToggleBlock(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}
