// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/aurorasocial/server/models"
	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 15.0
	rowHeight  = 7.0
)

// RMAPDF renders the report as an A4 document: header, summary cards, then
// the per-demand and per-day tables.
func RMAPDF(r models.RMAReport, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator(systemName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s - %s | Página %d", systemName, period(r), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	width, _ := pdf.GetPageSize()
	content := width - 2*pageMargin

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(29, 78, 216)
	pdf.CellFormat(0, 9, tr(reportTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(55, 65, 81)
	pdf.CellFormat(0, 6, tr("Período: "+period(r)), "", 1, "C", false, 0, "")
	if r.TenantName != "" {
		pdf.CellFormat(0, 6, tr(r.TenantName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em: %s | Sistema: %s", generatedAt.Format("02/01/2006"), systemName)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Summary cards
	cards := []struct {
		label string
		value int
	}{
		{"Total de Atendimentos", r.TotalAtendimentos},
		{"Famílias Atendidas", r.TotalFamiliasAtendidas},
		{"Indivíduos Atendidos", r.TotalIndividuosAtendidos},
		{"Média Diária", dailyAverage(r)},
	}
	gap := 4.0
	cardW := (content - gap*float64(len(cards)-1)) / float64(len(cards))
	top := pdf.GetY()
	for i, c := range cards {
		x := pageMargin + float64(i)*(cardW+gap)
		pdf.SetFillColor(239, 246, 255)
		pdf.SetDrawColor(191, 219, 254)
		pdf.Rect(x, top, cardW, 22, "FD")
		pdf.SetXY(x, top+3)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(75, 85, 99)
		pdf.CellFormat(cardW, 5, tr(c.label), "", 0, "C", false, 0, "")
		pdf.SetXY(x, top+10)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(cardW, 9, strconv.Itoa(c.value), "", 0, "C", false, 0, "")
	}
	pdf.SetXY(pageMargin, top+30)

	// Per demand
	section(pdf, tr("Atendimentos por Tipo de Demanda"))
	cols := []float64{content * 0.6, content * 0.2, content * 0.2}
	tableHeader(pdf, cols, []string{tr("Tipo de Demanda"), "Quantidade", "Percentual"})
	if len(r.AtendimentosPorTipoDemanda) == 0 {
		emptyRow(pdf, content, tr(emptyPeriod))
	} else {
		for _, d := range r.AtendimentosPorTipoDemanda {
			tableRow(pdf, cols, []string{tr(demandLabel(d.TipoDemanda)), strconv.Itoa(d.Count), percent(d.Count, r.TotalAtendimentos)}, false)
		}
		tableRow(pdf, cols, []string{"Total", strconv.Itoa(r.TotalAtendimentos), "100.0%"}, true)
	}
	pdf.Ln(6)

	// Per day
	section(pdf, tr("Atendimentos por Dia do Mês"))
	dayCols := []float64{content / 2, content / 2}
	tableHeader(pdf, dayCols, []string{"Dia", "Atendimentos"})
	if len(r.AtendimentosPorDia) == 0 {
		emptyRow(pdf, content, tr(emptyPeriod))
	} else {
		for _, d := range r.AtendimentosPorDia {
			tableRow(pdf, dayCols, []string{fmt.Sprintf("Dia %d", d.Dia), strconv.Itoa(d.Count)}, false)
		}
		tableRow(pdf, dayCols, []string{"Total", strconv.Itoa(dayTotal(r))}, true)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, widths []float64, cells []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(29, 78, 216)
	pdf.SetTextColor(255, 255, 255)
	for i, c := range cells {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], rowHeight, c, "", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *fpdf.Fpdf, widths []float64, cells []string, total bool) {
	style := ""
	if total {
		style = "B"
		pdf.SetFillColor(243, 244, 246)
	}
	pdf.SetFont("Helvetica", style, 9)
	pdf.SetTextColor(31, 41, 55)
	for i, c := range cells {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], rowHeight, c, "B", 0, align, total, 0, "")
	}
	pdf.Ln(-1)
}

func emptyRow(pdf *fpdf.Fpdf, width float64, text string) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(width, rowHeight, text, "B", 1, "C", false, 0, "")
}
