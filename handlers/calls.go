package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/services"
)

type Calls struct {
	Service      *services.Calls
	Contacts     *services.Contacts // resolves numbers to contact names, may be nil
	ErrorHandler func(context.Context, error)
}

type CallModel struct {
	ID string `json:"id" readOnly:"true" example:"06BQ5H7TV1NO1DA4LSJG4U46S4"`

	Number      string `json:"number"                example:"5551234567"`
	Time        string `json:"time"                  example:"10:05"`
	ContactID   string `json:"contactId,omitempty"   readOnly:"true" doc:"ID of the active contact with this phone number"`
	ContactName string `json:"contactName,omitempty" readOnly:"true" example:"Ava"`
}

func (h *Calls) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/calls",
		withErrors(h.list, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

type CallsListOutput struct {
	Body []CallModel
}

func (h *Calls) list(ctx context.Context, _ *struct{}) (*CallsListOutput, error) {
	calls, err := h.Service.List(ctx)
	if err != nil {
		return nil, err
	}

	var contacts []ds.Contact
	if h.Contacts != nil {
		contacts, err = h.Contacts.ListActive(ctx)
		if err != nil {
			return nil, err
		}
	}

	resolved := services.ResolveCalls(calls, contacts)
	body := make([]CallModel, 0, len(resolved))
	for _, call := range resolved {
		model := CallModel{ID: call.ID, Number: call.Number, Time: call.Time}
		if call.Contact != nil {
			model.ContactID, model.ContactName = call.Contact.ID, call.Contact.Name
		}
		body = append(body, model)
	}
	return &CallsListOutput{Body: body}, nil
}

func (h *Calls) RegisterAdd(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/calls",
		withErrors(h.add, h.ErrorHandler),
		opErrors(http.StatusUnprocessableEntity, http.StatusServiceUnavailable),
	)
}

type CallOutput struct {
	Body CallModel
}

func (h *Calls) add(ctx context.Context, input *struct {
	Body struct {
		Number string `json:"number"         example:"5551234567" minLength:"1"`
		Time   string `json:"time,omitempty" example:"10:05"      doc:"Display time, stored as given"`
	}
}) (*CallOutput, error) {
	call, err := h.Service.Add(ctx, input.Body.Number, input.Body.Time)
	if err != nil {
		return nil, err
	}
	return &CallOutput{Body: CallModel{ID: call.ID, Number: call.Number, Time: call.Time}}, nil
}

func (h *Calls) RegisterClear(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/calls",
		withErrors(h.clear, h.ErrorHandler),
		opErrors(http.StatusServiceUnavailable),
	)
}

func (h *Calls) clear(ctx context.Context, _ *struct{}) (*SuccessOutput, error) {
	err := h.Service.ClearAll(ctx)
	if err != nil {
		return nil, err
	}
	out := &SuccessOutput{}
	out.Body.Success = true
	return out, nil
}
