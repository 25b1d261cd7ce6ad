// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export renders the Relatório Mensal de Atendimentos (RMA) for download.

	xlsx, err := export.RMAExcel(report, time.Now())
	pdf, err := export.RMAPDF(report, time.Now())
	name := export.Filename(report.Mes, report.Ano, "xlsx") // RMA_Outubro_2025.xlsx

The workbook has three sheets: Resumo, Por Tipo de Demanda and Por Dia. The
PDF carries the same figures on an A4 page with summary cards.
*/
package export
