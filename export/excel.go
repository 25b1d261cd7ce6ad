// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"fmt"
	"time"

	"github.com/aurorasocial/server/models"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary = "Resumo"
	sheetDemand  = "Por Tipo de Demanda"
	sheetDay     = "Por Dia"
)

// RMAExcel renders the report as an xlsx workbook with summary, per-demand
// and per-day sheets.
func RMAExcel(r models.RMAReport, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetDemand, sheetDay} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}

	// Resumo
	summary := [][]any{
		{reportTitle},
		{},
		{"Período:", period(r)},
	}
	if r.TenantName != "" {
		summary = append(summary, []any{"Município:", r.TenantName})
	}
	summary = append(summary,
		[]any{"Gerado em:", generatedAt.Format("02/01/2006")},
		[]any{"Sistema:", systemName},
		[]any{},
		[]any{"RESUMO GERAL"},
		[]any{},
		[]any{"Métrica", "Valor"},
		[]any{"Total de Atendimentos", r.TotalAtendimentos},
		[]any{"Famílias Atendidas", r.TotalFamiliasAtendidas},
		[]any{"Indivíduos Atendidos", r.TotalIndividuosAtendidos},
		[]any{"Média Diária de Atendimentos", dailyAverage(r)},
	)
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}
	headerRow := len(summary) - 4
	f.SetCellStyle(sheetSummary, "A1", "A1", title)
	f.SetCellStyle(sheetSummary, cell(1, headerRow-2), cell(1, headerRow-2), bold)
	f.SetCellStyle(sheetSummary, cell(1, headerRow), cell(2, headerRow), bold)
	f.SetColWidth(sheetSummary, "A", "A", 30)
	f.SetColWidth(sheetSummary, "B", "B", 20)

	// Por Tipo de Demanda
	demand := [][]any{
		{"ATENDIMENTOS POR TIPO DE DEMANDA"},
		{},
		{"Tipo de Demanda", "Quantidade", "Percentual"},
	}
	if len(r.AtendimentosPorTipoDemanda) > 0 {
		for _, d := range r.AtendimentosPorTipoDemanda {
			demand = append(demand, []any{demandLabel(d.TipoDemanda), d.Count, percent(d.Count, r.TotalAtendimentos)})
		}
		demand = append(demand, []any{}, []any{"TOTAL", r.TotalAtendimentos, "100.0%"})
	} else {
		demand = append(demand, []any{emptyPeriod, "", ""})
	}
	if err := writeRows(f, sheetDemand, demand); err != nil {
		return nil, err
	}
	f.SetCellStyle(sheetDemand, "A1", "A1", title)
	f.SetCellStyle(sheetDemand, "A3", "C3", bold)
	f.SetColWidth(sheetDemand, "A", "A", 40)
	f.SetColWidth(sheetDemand, "B", "C", 15)

	// Por Dia
	days := [][]any{
		{"ATENDIMENTOS POR DIA DO MÊS"},
		{},
		{"Dia", "Atendimentos"},
	}
	if len(r.AtendimentosPorDia) > 0 {
		for _, d := range r.AtendimentosPorDia {
			days = append(days, []any{fmt.Sprintf("Dia %d", d.Dia), d.Count})
		}
		days = append(days, []any{}, []any{"TOTAL", dayTotal(r)})
	} else {
		days = append(days, []any{emptyPeriod, ""})
	}
	if err := writeRows(f, sheetDay, days); err != nil {
		return nil, err
	}
	f.SetCellStyle(sheetDay, "A1", "A1", title)
	f.SetCellStyle(sheetDay, "A3", "B3", bold)
	f.SetColWidth(sheetDay, "A", "B", 15)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheet, cell(1, i+1), &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
