// Package report assembles the equipment analysis document.
//
// A Document is structural: an ordered list of sections holding tables, chart
// series and text lines. It carries no timestamps and no layout, so identical
// datasets always produce identical documents and any renderer (PDF, XLSX)
// can typeset it.
package report
