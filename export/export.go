// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"fmt"

	"github.com/aurorasocial/server/models"
)

// Monthly report rendering shared by the Excel and PDF writers.

const (
	reportTitle = "Relatório Mensal de Atendimentos (RMA)"
	emptyPeriod = "Nenhum atendimento registrado no período"
	systemName  = "AuroraSocial"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("Mes%d", m)
	}
	return monthNames[m-1]
}

// Filename returns RMA_<Mês>_<ano>.<ext>, e.g. RMA_Outubro_2025.xlsx.
func Filename(mes, ano int, ext string) string {
	return fmt.Sprintf("RMA_%s_%d.%s", MonthName(mes), ano, ext)
}

func period(r models.RMAReport) string {
	return fmt.Sprintf("%s de %d", MonthName(r.Mes), r.Ano)
}

func demandLabel(tipo string) string {
	if label, ok := models.DemandaLabels[tipo]; ok {
		return label
	}
	return tipo
}

func percent(count, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
}

// dailyAverage is the rounded mean over days that had at least one atendimento.
func dailyAverage(r models.RMAReport) int {
	if len(r.AtendimentosPorDia) == 0 {
		return 0
	}
	return int(float64(r.TotalAtendimentos)/float64(len(r.AtendimentosPorDia)) + 0.5)
}

func dayTotal(r models.RMAReport) int {
	n := 0
	for _, d := range r.AtendimentosPorDia {
		n += d.Count
	}
	return n
}
