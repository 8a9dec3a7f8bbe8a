package application

import (
	"strings"
	"time"

	"github.com/example/plateforme-admin/internal/apiclient"
)

// Person is the user summary attached to presentations, comments and votes.
type Person struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
}

// FullName joins the first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Department is a department as shown by the admin pages.
type Department struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	EmployeeCount int    `json:"employeeCount"`
}

// DepartmentInput carries the editable department fields.
type DepartmentInput struct {
	Name          string `json:"nomDepartement" validate:"required,max=100"`
	Code          string `json:"code" validate:"required,max=20"`
	Description   string `json:"description" validate:"max=500"`
	EmployeeCount int    `json:"nombreEmployes" validate:"gte=0"`
}

// Presentation is a scheduled presentation with its status as a display label.
type Presentation struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      Status    `json:"status"`
	Owner       Person    `json:"owner"`
	Files       []string  `json:"files"`
}

// PresentationInput carries the fields of the create and update forms.
// Status is a display label; Date is YYYY-MM-DD and Start/End are HH:MM.
type PresentationInput struct {
	OwnerID     int64            `json:"idUtilisateur" validate:"required,gt=0"`
	Date        string           `json:"datePresentation" validate:"required,datetime=2006-01-02"`
	Start       string           `json:"heureDebut" validate:"required,clock"`
	End         string           `json:"heureFin" validate:"required,clock"`
	Subject     string           `json:"sujet" validate:"required,max=200"`
	Status      Status           `json:"statut" validate:"required,status"`
	Description string           `json:"description" validate:"max=2000"`
	Files       []apiclient.File `json:"-"`
}

// PresentationStats holds the vote aggregates of one presentation.
type PresentationStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// PresentationWithStats pairs a presentation with its vote aggregates.
// Placeholder is set when the aggregates could not be loaded.
type PresentationWithStats struct {
	Presentation
	Stats       PresentationStats `json:"stats"`
	Placeholder bool              `json:"placeholder"`
}

// StatusGroup lists the presentations sharing one status.
type StatusGroup struct {
	Status        Status         `json:"status"`
	Presentations []Presentation `json:"presentations"`
}

// CalendarEvent is the calendar projection of a presentation. Conflicts
// lists the overlapping presentations; DoubleBooked is set when one of them
// belongs to the same presenter.
type CalendarEvent struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Description  string    `json:"description"`
	Status       Status    `json:"status"`
	Owner        Person    `json:"owner"`
	Conflicts    []int64   `json:"conflicts,omitempty"`
	DoubleBooked bool      `json:"doubleBooked,omitempty"`
}

// Comment is a comment posted on a presentation.
type Comment struct {
	ID             int64     `json:"id"`
	PresentationID int64     `json:"presentationId"`
	Author         Person    `json:"author"`
	Content        string    `json:"content"`
	PostedAt       time.Time `json:"postedAt"`
}

// Vote is one rating of a presentation.
type Vote struct {
	ID             int64  `json:"id"`
	PresentationID int64  `json:"presentationId"`
	Voter          Person `json:"voter"`
	Rating         int    `json:"rating"`
}

// NotificationAction is the kind of change a notification reports.
type NotificationAction string

// Notification actions.
const (
	ActionAdd    NotificationAction = "Add"
	ActionModify NotificationAction = "Modify"
	ActionDelete NotificationAction = "Delete"
)

// Notification is an entry of the signed-in user's inbox.
type Notification struct {
	ID         int64              `json:"id"`
	Read       bool               `json:"read"`
	Message    string             `json:"message"`
	Action     NotificationAction `json:"action"`
	ReceivedAt time.Time          `json:"receivedAt"`
}

// Profile is the signed-in user's account.
type Profile struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	BadgeID      string    `json:"badgeId"`
	Department   string    `json:"department"`
	RegisteredAt time.Time `json:"registeredAt"`
	PhotoURL     string    `json:"photoUrl"`
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName string `json:"prenom" validate:"required,max=100"`
	LastName  string `json:"nom" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Position  string `json:"poste" validate:"max=100"`
	BadgeID   string `json:"matricule" validate:"max=50"`
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"motDePasse" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	FirstName string `json:"prenom" validate:"required,max=100"`
	LastName  string `json:"nom" validate:"required,max=100"`
	Position  string `json:"poste" validate:"required,max=100"`
	BadgeID   string `json:"matricule" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"motDePasse" validate:"required,min=8"`
}

// PasswordChange is the reset form reached from the emailed link.
type PasswordChange struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"nouveauMotDePasse" validate:"required,min=8"`
}

// SignedIn describes the session created by a login or registration.
type SignedIn struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Active      bool      `json:"active"`
}

// DashboardStats summarizes the platform for the dashboard page.
type DashboardStats struct {
	TotalPresentations int            `json:"totalPresentations"`
	TotalUsers         int            `json:"totalUsers"`
	TotalDepartments   int            `json:"totalDepartments"`
	UnreadCount        int            `json:"unreadCount"`
	ByStatus           map[Status]int `json:"byStatus"`
	Upcoming           []Presentation `json:"upcoming"`
}

func toPerson(dto *userDTO) Person {
	if dto == nil {
		return Person{}
	}
	return Person{
		ID:         dto.ID,
		FirstName:  strings.TrimSpace(dto.FirstName),
		LastName:   strings.TrimSpace(dto.LastName),
		Email:      strings.TrimSpace(dto.Email),
		Department: dto.Department.String(),
	}
}

func toDepartment(dto departmentDTO) Department {
	return Department{
		ID:            dto.ID,
		Name:          strings.TrimSpace(dto.Name),
		Code:          strings.TrimSpace(dto.Code),
		Description:   strings.TrimSpace(dto.Description),
		EmployeeCount: dto.EmployeeCount,
	}
}

func toPresentation(dto presentationDTO) Presentation {
	date := parseDateTime(dto.Date)
	return Presentation{
		ID:          dto.ID,
		Subject:     strings.TrimSpace(dto.Subject),
		Description: strings.TrimSpace(dto.Description),
		Date:        date,
		Start:       parseClock(date, dto.Start),
		End:         parseClock(date, dto.End),
		Status:      StatusToDisplay(dto.Status),
		Owner:       toPerson(dto.Owner),
		Files:       SplitFiles(dto.Files),
	}
}

func toPresentations(dtos []presentationDTO) []Presentation {
	out := make([]Presentation, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toPresentation(dto))
	}
	return out
}

func toComment(dto commentDTO, presentationID int64) Comment {
	if dto.Presentation != nil && dto.Presentation.ID != 0 {
		presentationID = dto.Presentation.ID
	}
	return Comment{
		ID:             dto.ID,
		PresentationID: presentationID,
		Author:         toPerson(dto.Author),
		Content:        plainText(dto.Content),
		PostedAt:       parseDateTime(dto.PostedAt),
	}
}

func toVote(dto voteDTO, presentationID int64) Vote {
	if dto.Presentation != nil && dto.Presentation.ID != 0 {
		presentationID = dto.Presentation.ID
	}
	return Vote{
		ID:             dto.ID,
		PresentationID: presentationID,
		Voter:          toPerson(dto.Voter),
		Rating:         dto.Rating,
	}
}

func toNotification(dto notificationDTO) Notification {
	return Notification{
		ID:         dto.ID,
		Read:       dto.Read,
		Message:    plainText(dto.Message),
		Action:     toAction(dto.Action),
		ReceivedAt: parseDateTime(dto.ReceivedAt),
	}
}

// toAction maps the backend action codes, in French or English, onto the
// three notification actions. Unknown codes pass through.
func toAction(code string) NotificationAction {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "ADD", "AJOUT", "CREATE", "CREATION":
		return ActionAdd
	case "MODIFY", "MODIFICATION", "UPDATE":
		return ActionModify
	case "DELETE", "SUPPRESSION":
		return ActionDelete
	}
	return NotificationAction(code)
}

func toProfile(dto userDTO) Profile {
	return Profile{
		ID:           dto.ID,
		FirstName:    strings.TrimSpace(dto.FirstName),
		LastName:     strings.TrimSpace(dto.LastName),
		Email:        strings.TrimSpace(dto.Email),
		Position:     strings.TrimSpace(dto.Position),
		BadgeID:      strings.TrimSpace(dto.BadgeID),
		Department:   dto.Department.String(),
		RegisteredAt: parseDateTime(dto.RegisteredAt),
		PhotoURL:     strings.TrimSpace(dto.Photo),
	}
}
