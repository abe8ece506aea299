// Package colorize applies chroma syntax highlighting to listing lines.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// NoColorEnv disables all colorization when set to any value.
const NoColorEnv = "MIPSDIS_NO_COLOR"

// Disabled reports whether colors are turned off.
func Disabled() bool {
	return os.Getenv(NoColorEnv) != "" || os.Getenv("NO_COLOR") != ""
}

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	// GAS understands $-prefixed MIPS registers and off(base) operands.
	candidates := []string{"gas", "GAS", "armasm", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// mipsDark colors the tokens the GAS lexer emits for MIPS listings.
// Mnemonics lex as NameFunction and $-registers as NameConstant; .word
// placeholders start a directive (NameAttribute).
var mipsDark = styles.Register(chroma.MustNewStyle("mips-dark", chroma.StyleEntries{
	chroma.Background:           "bg:#1e1e1e",
	chroma.Text:                 "#FFFFFF",
	chroma.NameFunction:         "#FFFFFF",
	chroma.NameConstant:         "#7C9C9D",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.Punctuation:          "#8A8A8A",
	chroma.NameAttribute:        "#E5A84B",
	chroma.NameLabel:            "#FFD700",
	chroma.CommentSingle:        "#EBC2ED",
	chroma.LiteralString:        "#EACD53",
}))

func getDisasmStyle() *chroma.Style {
	if mipsDark != nil {
		return mipsDark
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly applies syntax highlighting to a block of assembly.
func ColorizeAssembly(code string) (string, error) {
	if Disabled() {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

const (
	grayAddr  = "\033[38;2;79;79;79m"
	goldLabel = "\033[38;2;255;215;0m"
	pinkNote  = "\033[38;2;235;194;237m"
	reset     = "\033[0m"
)

// ColorizeInstructionLine colorizes a single listing line while preserving
// its column layout.
//
//	"addr  label:"
//	"addr  mnemonic operands   ; comment"
//	"                          ; comment"
func ColorizeInstructionLine(line string) string {
	if Disabled() {
		return line
	}

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ";") {
		return pinkNote + line + reset
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 || !isHexWord(parts[0]) {
		return colorizeFullLine(line)
	}
	addr, remaining := parts[0], parts[1]

	if strings.HasSuffix(trimmed, ":") {
		return fmt.Sprintf("%s%s%s %s%s%s", grayAddr, addr, reset, goldLabel, remaining, reset)
	}

	code, comment := remaining, ""
	if i := strings.Index(remaining, " ; "); i >= 0 {
		code, comment = remaining[:i], remaining[i:]
	}
	out := fmt.Sprintf("%s%s%s %s", grayAddr, addr, reset, colorizeFullLine(code))
	if comment != "" {
		out += pinkNote + comment + reset
	}
	return out
}

func isHexWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexChar(s[i]) {
			return false
		}
	}
	return true
}

// isHexChar checks if a character is a hexadecimal digit
func isHexChar(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// colorizeFullLine uses Chroma to colorize an assembly line
func colorizeFullLine(line string) string {
	if Disabled() {
		return line
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return line
	}
	// Lexers may append a newline the caller did not ask for; it can sit
	// inside a trailing escape sequence.
	out := buf.String()
	if !strings.HasSuffix(line, "\n") {
		if i := strings.LastIndexByte(out, '\n'); i >= 0 {
			out = out[:i] + out[i+1:]
		}
	}
	return out
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// VisibleWidth returns the number of runes shown once escapes are removed.
func VisibleWidth(s string) int {
	return len([]rune(StripANSI(s)))
}
