// Package i18n holds the user facing messages of the API in the supported languages.
package i18n

import (
	"golang.org/x/text/language"
)

// Default is used when nothing in Accept-Language matches.
const Default = "es"

var supported = []language.Tag{language.Spanish, language.English, language.French}

var matcher = language.NewMatcher(supported)

var messages = map[string]map[string]string{
	"es": {
		"required":          "Obligatorio",
		"valid":             "Correcto",
		"invalid_name":      "El nombre no puede estar vacío",
		"invalid_attribute": "Atributo desconocido",
		"invalid_subtotal":  "El subtotal no corresponde al atributo",
		"invalid_file":      "El archivo no es una hoja de cálculo válida",
		"invalid_position":  "Posición de celda no válida",
		"duplicated":        "Ya existe un elemento con ese nombre",
		"read_only":         "El elemento está eliminado y no se puede modificar",
		"in_use":            "El elemento está en uso",
		"not_found":         "No encontrado",
		"resolution_failed": "No se pudo resolver la plantilla",
		"not_applicable":    "La variable no se aplica a este documento",
		"unknown_variable":  "Variable desconocida",
		"validation_failed": "Revise los campos marcados",
		"must_be_positive":  "Debe ser mayor que cero",
	},
	"en": {
		"required":          "Required",
		"valid":             "Valid",
		"invalid_name":      "Name must not be empty",
		"invalid_attribute": "Unknown attribute",
		"invalid_subtotal":  "Subtotal does not match the attribute",
		"invalid_file":      "File is not a valid spreadsheet",
		"invalid_position":  "Invalid cell position",
		"duplicated":        "An item with that name already exists",
		"read_only":         "Item is deleted and cannot be modified",
		"in_use":            "Item is in use",
		"not_found":         "Not found",
		"resolution_failed": "Template could not be resolved",
		"not_applicable":    "Variable does not apply to this document",
		"unknown_variable":  "Unknown variable",
		"validation_failed": "Please check the highlighted fields",
		"must_be_positive":  "Must be greater than zero",
	},
	"fr": {
		"required":          "Requis",
		"valid":             "Valide",
		"invalid_name":      "Le nom ne peut pas être vide",
		"invalid_attribute": "Attribut inconnu",
		"invalid_subtotal":  "Le sous-total ne correspond pas à l'attribut",
		"invalid_file":      "Le fichier n'est pas un tableur valide",
		"invalid_position":  "Position de cellule invalide",
		"duplicated":        "Un élément porte déjà ce nom",
		"read_only":         "L'élément est supprimé et ne peut pas être modifié",
		"in_use":            "L'élément est utilisé",
		"not_found":         "Introuvable",
		"resolution_failed": "Le modèle n'a pas pu être résolu",
		"not_applicable":    "La variable ne s'applique pas à ce document",
		"unknown_variable":  "Variable inconnue",
		"validation_failed": "Vérifiez les champs signalés",
		"must_be_positive":  "Doit être supérieur à zéro",
	},
}

// DetectLanguage picks the best supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T returns the message for code in lang, falling back to Default and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}
