package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/plateforme-admin/internal/apiclient"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := parseClockInput(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Known()
	})
	return v
}

// validateStruct runs the struct tags of input and converts failures into a
// ValidationError keyed by the JSON field names.
func validateStruct(input any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("_", MessageUnexpected)
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldMessage(fe.Tag(), fe.Param()))
	}
	return vErr
}

func fieldMessage(tag, param string) string {
	switch tag {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Adresse email invalide."
	case "max":
		return fmt.Sprintf("Ce champ ne doit pas dépasser %s caractères.", param)
	case "min":
		return fmt.Sprintf("Ce champ doit contenir au moins %s caractères.", param)
	case "datetime":
		return "Date invalide (AAAA-MM-JJ)."
	case "clock":
		return "Heure invalide (HH:MM)."
	case "status":
		return "Statut inconnu."
	default:
		return "Valeur invalide."
	}
}

func parseClockInput(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validateDepartmentInput(input DepartmentInput) *ValidationError {
	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.TrimSpace(input.Code)
	return validateStruct(input)
}

func validatePresentationInput(input PresentationInput) *ValidationError {
	input.Subject = strings.TrimSpace(input.Subject)
	vErr := validateStruct(input)
	vErr.merge(validateTimeRange(input.Start, input.End))
	vErr.merge(validateFileNames(input.Files))
	return vErr
}

func validateTimeRange(startValue, endValue string) *ValidationError {
	vErr := &ValidationError{}
	start, startOK := parseClockInput(startValue)
	end, endOK := parseClockInput(endValue)
	if startOK && endOK && !end.After(start) {
		vErr.add("heureFin", "L'heure de fin doit être postérieure à l'heure de début.")
	}
	return vErr
}

func validateFileNames(files []apiclient.File) *ValidationError {
	vErr := &ValidationError{}
	for i, file := range files {
		key := fmt.Sprintf("fichiers[%d]", i)
		if strings.Contains(file.Name, ",") {
			vErr.add(key, "Le nom de fichier ne doit pas contenir de virgule.")
		}
		if strings.TrimSpace(file.Name) == "" {
			vErr.add(key, "Le nom de fichier est obligatoire.")
		}
	}
	return vErr
}

func validateRating(rating int) *ValidationError {
	vErr := &ValidationError{}
	if err := validate.Var(rating, "min=1,max=5"); err != nil {
		vErr.add("note", "La note doit être comprise entre 1 et 5.")
	}
	return vErr
}

func validateCommentContent(content string) *ValidationError {
	vErr := &ValidationError{}
	if err := validate.Var(strings.TrimSpace(content), "required,max=1000"); err != nil {
		vErr.add("contenu", "Le commentaire doit contenir entre 1 et 1000 caractères.")
	}
	return vErr
}
