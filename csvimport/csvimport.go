// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csvimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
)

// TemplateFilename is the suggested name of the downloadable template.
const TemplateFilename = "template-importacao-cidadaos.csv"

// MaxRows bounds a single import.
const MaxRows = 5000

var (
	ErrMalformed = errors.New("malformed csv")
	ErrEmpty     = errors.New("csv has no data rows")
	ErrTooMany   = errors.New("too many rows")
)

// Columns in template order.
var Columns = []string{
	"nomeCompleto", "cpf", "dataNascimento", "sexo", "nomeMae", "nis", "rg",
	"tituloEleitor", "carteiraTrabalho", "endereco", "rendaFamiliarTotal", "ehResponsavel",
}

var required = []string{"nomeCompleto", "cpf", "dataNascimento", "sexo"}

// fieldColumn maps validation field names to CSV columns.
var fieldColumn = map[string]string{
	"nome_completo":        "nomeCompleto",
	"cpf":                  "cpf",
	"data_nascimento":      "dataNascimento",
	"sexo":                 "sexo",
	"nis":                  "nis",
	"endereco":             "endereco",
	"renda_familiar_total": "rendaFamiliarTotal",
}

// Repository is the storage the import writes to.
type Repository interface {
	ExistingCPFs(ctx context.Context, cpfs []string) (map[string]bool, error)
	CreateCitizens(ctx context.Context, batch []store.NewCitizen) (int, error)
}

// Template returns the CSV header plus one example row.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(Columns)
	w.Write([]string{
		"João da Silva", "12345678901", "1985-05-15", "MASCULINO", "Maria da Silva",
		"10987654321", "MG1234567", "123456789012", "1234567",
		"Rua das Flores, 123, Centro", "1500.00", "SIM",
	})
	w.Flush()
	return buf.Bytes()
}

// Row is one parsed data line with its CSV values keyed by column.
type Row struct {
	Line   int
	Values map[string]string
}

// Parse reads a CSV with a header line. A UTF-8 BOM is tolerated, cells
// are trimmed and blank lines skipped.
func Parse(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) < 2 {
		return nil, ErrEmpty
	}

	header := make([]string, len(records[0]))
	seen := map[string]bool{}
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		seen[header[i]] = true
	}
	for _, col := range required {
		if !seen[col] {
			return nil, fmt.Errorf("%w: coluna obrigatória ausente: %s", ErrMalformed, col)
		}
	}

	body := records[1:]
	if len(body) > MaxRows {
		return nil, fmt.Errorf("%w: %d linhas (máximo %d)", ErrTooMany, len(body), MaxRows)
	}

	rows := make([]Row, 0, len(body))
	for i, rec := range body {
		values := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(rec) {
				values[col] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, Row{Line: i + 2, Values: values})
	}
	return rows, nil
}

// Validate checks every row and returns the citizens to insert, or the
// per-line errors when any row is invalid.
func Validate(rows []Row, now time.Time) ([]store.NewCitizen, []models.ImportError) {
	var (
		out  []store.NewCitizen
		errs []models.ImportError
	)

	for _, row := range rows {
		v := row.Values
		var msgs []string

		in := models.CitizenInput{
			NomeCompleto:     v["nomeCompleto"],
			CPF:              v["cpf"],
			DataNascimento:   v["dataNascimento"],
			Sexo:             v["sexo"],
			NomeMae:          v["nomeMae"],
			NIS:              v["nis"],
			RG:               v["rg"],
			TituloEleitor:    v["tituloEleitor"],
			CarteiraTrabalho: v["carteiraTrabalho"],
			Endereco:         v["endereco"],
		}

		switch strings.ToUpper(v["ehResponsavel"]) {
		case "", "NAO", "NÃO":
		case "SIM":
			// A responsável without an address is imported without a família.
			in.CreateAsResponsavel = in.Endereco != ""
		default:
			msgs = append(msgs, "ehResponsavel: Valor deve ser SIM ou NAO")
		}

		if raw := v["rendaFamiliarTotal"]; raw != "" {
			renda, err := parseDecimal(raw)
			if err != nil {
				msgs = append(msgs, "rendaFamiliarTotal: Renda deve ser um número")
			} else if renda < 0 {
				msgs = append(msgs, "rendaFamiliarTotal: Renda familiar não pode ser negativa")
			} else {
				in.RendaFamiliarTotal = &renda
			}
		}

		rec, fam, err := models.ValidateCitizen(in, true, now)
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			for _, m := range verr.Messages() {
				field, msg, _ := strings.Cut(m, ": ")
				if col, ok := fieldColumn[field]; ok {
					field = col
				}
				msgs = append(msgs, field+": "+msg)
			}
		case err != nil:
			msgs = append(msgs, err.Error())
		}

		if len(msgs) > 0 {
			errs = append(errs, models.ImportError{Line: row.Line, CPF: v["cpf"], Errors: msgs})
			continue
		}
		out = append(out, store.NewCitizen{Citizen: rec, Family: fam})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// Import parses, validates and inserts a CSV for the tenant in ctx. Nothing is
// written unless every row is valid and no CPF is already registered.
// Malformed files return an error; row problems are reported in the result.
func Import(ctx context.Context, repo Repository, r io.Reader, now time.Time) (models.ImportResult, error) {
	rows, err := Parse(r)
	if err != nil {
		return models.ImportResult{}, err
	}

	batch, verrs := Validate(rows, now)
	if len(verrs) > 0 {
		return failed(verrs, fmt.Sprintf("%d linha(s) com erro de validação. Corrija os erros e tente novamente.", len(verrs))), nil
	}

	// Duplicates inside the file
	firstLine := make(map[string]int, len(batch))
	var dupErrs []models.ImportError
	for i, nc := range batch {
		cpf := nc.Citizen.CPF
		if first, ok := firstLine[cpf]; ok {
			dupErrs = append(dupErrs, models.ImportError{
				Line:   rows[i].Line,
				CPF:    cpf,
				Errors: []string{fmt.Sprintf("CPF %s aparece múltiplas vezes no arquivo (primeira ocorrência na linha %d)", cpf, first)},
			})
			continue
		}
		firstLine[cpf] = rows[i].Line
	}
	if len(dupErrs) > 0 {
		return failed(dupErrs, "CPFs duplicados encontrados no arquivo. Cada CPF deve aparecer apenas uma vez."), nil
	}

	cpfs := make([]string, len(batch))
	for i, nc := range batch {
		cpfs[i] = nc.Citizen.CPF
	}
	existing, err := repo.ExistingCPFs(ctx, cpfs)
	if err != nil {
		return models.ImportResult{}, err
	}
	if len(existing) > 0 {
		var exErrs []models.ImportError
		for i, cpf := range cpfs {
			if existing[cpf] {
				exErrs = append(exErrs, models.ImportError{
					Line:   rows[i].Line,
					CPF:    cpf,
					Errors: []string{fmt.Sprintf("CPF %s já está cadastrado no sistema", cpf)},
				})
			}
		}
		return failed(exErrs, fmt.Sprintf("%d CPF(s) já cadastrado(s) no sistema. Remova-os do arquivo e tente novamente.", len(exErrs))), nil
	}

	n, err := repo.CreateCitizens(ctx, batch)
	if err != nil {
		return models.ImportResult{}, err
	}
	return models.ImportResult{
		Success:  true,
		Imported: n,
		Errors:   []models.ImportError{},
		Message:  fmt.Sprintf("%d cidadão(s) importado(s) com sucesso!", n),
	}, nil
}

// parseDecimal accepts 1500.00 as well as the Brazilian 1.500,00.
func parseDecimal(s string) (float64, error) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

func failed(errs []models.ImportError, msg string) models.ImportResult {
	return models.ImportResult{Success: false, Imported: 0, Errors: errs, Message: msg}
}
