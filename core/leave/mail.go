package leave

import (
	"net/mail"
	"strings"

	"github.com/attendix/attendix/core"
)

const (
	newRequestTemplate = "leave_request_new"
	statusTemplate     = "leave_request_status"
)

type newRequestData struct {
	AdminName    string
	EmployeeName string
	LeaveType    string
	StartDate    string
	EndDate      string
	Reason       string
}

type statusData struct {
	EmployeeName string
	LeaveType    string
	StartDate    string
	EndDate      string
	Status       string
	StatusTitle  string
	Approved     bool
}

func newRequestMessage(to Contact, from Contact, lv Leave) *core.EmailMessage {
	adminName := to.Name
	if adminName == "" {
		adminName = "Admin"
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: to.Name, Address: to.Email}},
		Subject:      "New leave request from " + from.Name,
		Tag:          from.OrganizationName,
		TemplateName: newRequestTemplate,
		TemplateData: newRequestData{
			AdminName:    adminName,
			EmployeeName: from.Name,
			LeaveType:    lv.Type,
			StartDate:    core.FormatDMY(lv.StartDate),
			EndDate:      core.FormatDMY(lv.EndDate),
			Reason:       lv.Reason,
		},
	}
}

func statusMessage(to Contact, lv Leave) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: to.Name, Address: to.Email}},
		Subject:      "Your leave request has been " + lv.Status,
		Tag:          to.OrganizationName,
		TemplateName: statusTemplate,
		TemplateData: statusData{
			EmployeeName: to.Name,
			LeaveType:    lv.Type,
			StartDate:    core.FormatDMY(lv.StartDate),
			EndDate:      core.FormatDMY(lv.EndDate),
			Status:       lv.Status,
			StatusTitle:  strings.ToUpper(lv.Status[:1]) + lv.Status[1:],
			Approved:     lv.Status == StatusApproved,
		},
	}
}
