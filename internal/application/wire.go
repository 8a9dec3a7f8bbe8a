package application

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Wire types mirror the backend JSON field names.

type departmentDTO struct {
	ID            int64  `json:"idDepartement,omitempty"`
	Name          string `json:"nomDepartement"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	EmployeeCount int    `json:"nombreEmployes"`
}

type userDTO struct {
	ID           int64      `json:"idUtilisateur"`
	FirstName    string     `json:"prenom"`
	LastName     string     `json:"nom"`
	Email        string     `json:"email"`
	Position     string     `json:"poste"`
	BadgeID      string     `json:"matricule"`
	Department   flexString `json:"departement"`
	RegisteredAt string     `json:"dateInscription"`
	Photo        string     `json:"photoProfil"`
}

type presentationDTO struct {
	ID          int64    `json:"idPresentation"`
	Subject     string   `json:"sujet"`
	Description string   `json:"description"`
	Date        string   `json:"datePresentation"`
	Start       string   `json:"heureDebut"`
	End         string   `json:"heureFin"`
	Status      string   `json:"statut"`
	Files       string   `json:"fichier"`
	Owner       *userDTO `json:"utilisateur"`
}

type commentDTO struct {
	ID           int64            `json:"idCommentaire"`
	Content      string           `json:"contenu"`
	PostedAt     string           `json:"dateCommentaire"`
	Author       *userDTO         `json:"utilisateur"`
	Presentation *presentationRef `json:"presentation"`
}

type voteDTO struct {
	ID           int64            `json:"idVote"`
	Rating       int              `json:"note"`
	Voter        *userDTO         `json:"utilisateur"`
	Presentation *presentationRef `json:"presentation"`
}

type presentationRef struct {
	ID int64 `json:"idPresentation"`
}

type notificationDTO struct {
	ID         int64  `json:"idNotification"`
	Read       bool   `json:"lu"`
	Message    string `json:"message"`
	Action     string `json:"typeAction"`
	ReceivedAt string `json:"dateReception"`
}

type averageDTO struct {
	Average float64 `json:"average"`
}

type countDTO struct {
	Count int `json:"count"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"motDePasse"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	UserID    flexString `json:"idUtilisateur"`
	LastName  string     `json:"nom"`
	FirstName string     `json:"prenom"`
	Email     string     `json:"email"`
}

type registerRequest struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Position  string `json:"poste"`
	BadgeID   string `json:"matricule"`
	Email     string `json:"email"`
	Password  string `json:"motDePasse"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"nouveauMotDePasse"`
}

type profileUpdateRequest struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Email     string `json:"email"`
	Position  string `json:"poste"`
	BadgeID   string `json:"matricule"`
}

type dashboardDTO struct {
	TotalPresentations int               `json:"totalPresentations"`
	TotalUsers         int               `json:"totalUtilisateurs"`
	TotalDepartments   int               `json:"totalDepartements"`
	UnreadCount        int               `json:"notificationsNonLues"`
	ByStatus           map[string]int    `json:"presentationsParStatut"`
	Upcoming           []presentationDTO `json:"prochainesPresentations"`
}

// flexString decodes a JSON string, number or object carrying a name field.
// The backend is inconsistent about ids (number vs string) and about the
// department of a user (label vs nested record).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case data[0] == '{':
		var nested struct {
			Name string `json:"nomDepartement"`
			Nom  string `json:"nom"`
		}
		if err := json.Unmarshal(data, &nested); err != nil {
			return err
		}
		if nested.Name != "" {
			*f = flexString(nested.Name)
		} else {
			*f = flexString(nested.Nom)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

func (f flexString) Int64() int64 {
	n, err := strconv.ParseInt(f.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
