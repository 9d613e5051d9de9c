// Package ui renders bobil's one-shot terminal output with Lipgloss.
//
// Components:
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, warning and failure boxes with ordered details and
//     troubleshooting tips
//   - RenderStatus: a heater snapshot as a result box, with the water level
//     drawn as a bar
//   - Printer: writes the above to an io.Writer, as boxes when the writer is
//     a terminal and as plain lines otherwise
//
// Box widths follow the writer's terminal (see WriterWidth) within
// MinTerminalWidth and MaxContentWidth.
//
// Logging stays silent unless BOBIL_LOG_LEVEL or --log-level is set, so this
// output is not interleaved with log lines.
package ui
