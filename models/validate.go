// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ValidationError carries user-facing messages keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the field messages as "field: message" lines, sorted by field.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return out
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// CitizenRecord is a validated, normalized citizen ready for storage.
type CitizenRecord struct {
	NomeCompleto     string
	CPF              string
	DataNascimento   time.Time
	Sexo             string
	NomeMae          *string
	NIS              *string
	RG               *string
	TituloEleitor    *string
	CarteiraTrabalho *string
}

// FamilyRecord is a validated família created with its responsável.
type FamilyRecord struct {
	Endereco           string
	RendaFamiliarTotal *float64
}

// Digits strips every non-digit rune. CPF and NIS are stored this way.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ValidSexo reports whether s is a known sexo value.
func ValidSexo(s string) bool {
	switch s {
	case SexoMasculino, SexoFeminino, SexoOutro:
		return true
	}
	return false
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleGestor || r == RoleTecnico
}

// ValidTipoDemanda reports whether t is a known demand type.
func ValidTipoDemanda(t string) bool {
	_, ok := DemandaLabels[t]
	return ok
}

// ValidateCitizen checks a create/update payload. The family record is only
// returned when create is true and the caller asked to register the citizen
// as responsável.
func ValidateCitizen(in CitizenInput, create bool, now time.Time) (CitizenRecord, *FamilyRecord, error) {
	errs := fieldErrors{}
	rec := CitizenRecord{
		NomeCompleto:     strings.TrimSpace(in.NomeCompleto),
		CPF:              Digits(in.CPF),
		Sexo:             strings.ToUpper(strings.TrimSpace(in.Sexo)),
		NomeMae:          optional(in.NomeMae),
		RG:               optional(in.RG),
		TituloEleitor:    optional(in.TituloEleitor),
		CarteiraTrabalho: optional(in.CarteiraTrabalho),
	}

	if utf8.RuneCountInString(rec.NomeCompleto) < 3 {
		errs.add("nome_completo", "Nome deve ter ao menos 3 caracteres")
	}
	if len(rec.CPF) != 11 {
		errs.add("cpf", "CPF deve conter 11 dígitos")
	}

	if strings.TrimSpace(in.DataNascimento) == "" {
		errs.add("data_nascimento", "Data de nascimento é obrigatória")
	} else if d, err := time.Parse(time.DateOnly, strings.TrimSpace(in.DataNascimento)); err != nil {
		errs.add("data_nascimento", "Data deve estar no formato AAAA-MM-DD")
	} else if d.After(now) {
		errs.add("data_nascimento", "Data de nascimento não pode estar no futuro")
	} else {
		rec.DataNascimento = d.UTC()
	}

	if !ValidSexo(rec.Sexo) {
		errs.add("sexo", "Sexo deve ser MASCULINO, FEMININO ou OUTRO")
	}

	if nis := Digits(in.NIS); strings.TrimSpace(in.NIS) != "" {
		if len(nis) != 11 {
			errs.add("nis", "NIS deve conter 11 dígitos")
		} else {
			rec.NIS = &nis
		}
	}

	rendaOK := true
	if r := in.RendaFamiliarTotal; r != nil {
		switch {
		case math.IsNaN(*r) || math.IsInf(*r, 0):
			errs.add("renda_familiar_total", "Renda deve ser um número")
			rendaOK = false
		case *r < 0:
			errs.add("renda_familiar_total", "Renda familiar não pode ser negativa")
			rendaOK = false
		}
	}

	var fam *FamilyRecord
	if create && in.CreateAsResponsavel {
		fam = &FamilyRecord{Endereco: strings.TrimSpace(in.Endereco)}
		if fam.Endereco == "" {
			errs.add("endereco", "Endereço é obrigatório para o responsável familiar")
		}
		if in.RendaFamiliarTotal != nil && rendaOK {
			v := *in.RendaFamiliarTotal
			fam.RendaFamiliarTotal = &v
		}
	}

	if err := errs.err(); err != nil {
		return CitizenRecord{}, nil, err
	}
	return rec, fam, nil
}

// ValidateAtendimento checks and trims an atendimento payload.
func ValidateAtendimento(in CreateAtendimentoRequest) (CreateAtendimentoRequest, error) {
	errs := fieldErrors{}
	out := CreateAtendimentoRequest{
		TipoDemanda:    strings.TrimSpace(in.TipoDemanda),
		Encaminhamento: strings.TrimSpace(in.Encaminhamento),
		ParecerSocial:  strings.TrimSpace(in.ParecerSocial),
	}

	if !ValidTipoDemanda(out.TipoDemanda) {
		errs.add("tipo_demanda", "Tipo de demanda inválido")
	}
	checkLength(errs, "encaminhamento", "Encaminhamento", out.Encaminhamento)
	checkLength(errs, "parecer_social", "Parecer social", out.ParecerSocial)

	if err := errs.err(); err != nil {
		return CreateAtendimentoRequest{}, err
	}
	return out, nil
}

func checkLength(errs fieldErrors, field, label, v string) {
	n := utf8.RuneCountInString(v)
	switch {
	case n < 10:
		errs.add(field, label+" deve ter ao menos 10 caracteres")
	case n > 5000:
		errs.add(field, label+" deve ter no máximo 5000 caracteres")
	}
}

// DisplayNameFromEmail derives the temporary name given to invited users.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimFunc(local, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	if local == "" {
		return email
	}
	return local
}
