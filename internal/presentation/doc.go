// Package presentation turns a processed upload into display-ready values:
// formatted metrics, notices about dropped rows, chart geometry for inline
// SVG and the rows of the cleaned table.
//
// Nothing here recomputes data. Every number comes from domain.Summary or
// domain.Table and is only formatted or scaled to the chart canvas.
package presentation
