package validation

import "github.com/gulfdigital/backend/internal/model"

// form is implemented by each accepted request shape.
type form interface {
	// submission copies the shape's fields into a new record.
	// Fields the shape does not declare are left nil.
	submission() *model.Submission
}

// BasicForm is the minimal contact form: who, how to reach them, and what they want.
type BasicForm struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required,min=10,max=1000"`
	Company string `json:"company" validate:"omitempty,max=100"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
}

// EnhancedForm is the project inquiry form on the services pages.
type EnhancedForm struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Subject   string `json:"subject" validate:"required"`
	Message   string `json:"message" validate:"required,min=10,max=1000"`
	Company   string `json:"company" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Website   string `json:"website" validate:"omitempty,url"`
	ServiceID string `json:"serviceId" validate:"omitempty,max=100"`
	Budget    string `json:"budget" validate:"omitempty,oneof=under-5k 5k-10k 10k-25k 25k-50k 50k-plus"`
	Timeline  string `json:"timeline" validate:"omitempty,oneof=asap 1-month 1-3-months 3-6-months flexible"`
}

// MarketingForm is the lead form embedded in the location and campaign landing pages.
type MarketingForm struct {
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Subject         string `json:"subject" validate:"required,min=2,max=100"`
	Message         string `json:"message" validate:"required,min=10,max=1000"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Company         string `json:"company" validate:"omitempty,max=100"`
	Website         string `json:"website" validate:"omitempty,url"`
	ServiceInterest string `json:"serviceInterest" validate:"omitempty,max=100"`
	Timeline        string `json:"timeline" validate:"omitempty,oneof=asap this-month 1-3-months 3-6-months just-exploring"`
	Location        string `json:"location" validate:"omitempty,max=100"`
	Price           string `json:"price" validate:"omitempty,max=50"`
	PageURL         string `json:"pageUrl" validate:"omitempty,url"`
}

func (f *BasicForm) submission() *model.Submission {
	return &model.Submission{
		Name:    f.Name,
		Email:   f.Email,
		Message: f.Message,
		Subject: model.StringPtr(f.Subject),
		Company: model.StringPtr(f.Company),
		Phone:   model.StringPtr(f.Phone),
		Schema:  model.SchemaBasic,
	}
}

func (f *EnhancedForm) submission() *model.Submission {
	return &model.Submission{
		Name:     f.Name,
		Email:    f.Email,
		Message:  f.Message,
		Subject:  model.StringPtr(f.Subject),
		Company:  model.StringPtr(f.Company),
		Phone:    model.StringPtr(f.Phone),
		Website:  model.StringPtr(f.Website),
		Service:  model.StringPtr(f.ServiceID),
		Budget:   model.StringPtr(f.Budget),
		Timeline: model.StringPtr(f.Timeline),
		Schema:   model.SchemaEnhanced,
	}
}

func (f *MarketingForm) submission() *model.Submission {
	return &model.Submission{
		Name:     f.Name,
		Email:    f.Email,
		Message:  f.Message,
		Subject:  model.StringPtr(f.Subject),
		Company:  model.StringPtr(f.Company),
		Phone:    model.StringPtr(f.Phone),
		Website:  model.StringPtr(f.Website),
		Service:  model.StringPtr(f.ServiceInterest),
		Timeline: model.StringPtr(f.Timeline),
		Location: model.StringPtr(f.Location),
		Price:    model.StringPtr(f.Price),
		PageURL:  model.StringPtr(f.PageURL),
		Schema:   model.SchemaMarketing,
	}
}
