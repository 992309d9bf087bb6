package util

import (
	"bytes"
	"fmt"
)

func GetLineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i == pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}

// GetContextLines extracts and formats context lines around an error
// position, pointing an arrow at the offending column.
func GetContextLines(src string, errorLine, errorCol int, note string) string {
	var result bytes.Buffer

	lines := []string{}
	lineStart := 0
	for i, ch := range src {
		if ch == '\n' {
			lines = append(lines, src[lineStart:i])
			lineStart = i + 1
		}
	}
	if lineStart <= len(src) {
		lines = append(lines, src[lineStart:])
	}

	// Show 2 lines before the error line (if available)
	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	for i := startLine; i <= errorLine && i <= len(lines); i++ {
		lineContent := lines[i-1]
		if i == errorLine {
			margin := fmt.Sprintf("  >  %3d | ", i)
			result.WriteString(fmt.Sprintf("%s%s\n", margin, lineContent))
			col := errorCol
			if col > len(lineContent)+1 {
				col = len(lineContent) + 1
			}
			result.WriteString(fmt.Sprintf("%s^ %s",
				replaceVisibleWithSpaces(margin+lineContent[:col-1]), note))
		} else {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
		}
	}

	return result.String()
}

// replaceVisibleWithSpaces replaces all non-whitespace characters with spaces
// while preserving tabs for correct alignment.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
