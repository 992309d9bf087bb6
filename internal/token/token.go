package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"

	// Identifiers + literals
	IDENT  = "IDENT"  // counter, x, y, ...
	INT    = "INT"    // 42, -7
	FLOAT  = "FLOAT"  // 3.14
	STRING = "STRING" // "foobar"
	LABEL  = "LABEL"  // @main

	// Keywords
	TRUE  = "TRUE"
	FALSE = "FALSE"
	VOID  = "VOID"
	ANY   = "ANY"
	END   = "END"

	// Instructions
	PUSH   = "PUSH"
	POP    = "POP"
	PEEK   = "PEEK"
	ADD    = "ADD"
	SUB    = "SUB"
	MUL    = "MUL"
	DIV    = "DIV"
	MOD    = "MOD"
	LT     = "LT"
	LTE    = "LTE"
	GT     = "GT"
	GTE    = "GTE"
	EQ     = "EQ"
	NEQ    = "NEQ"
	JMP    = "JMP"
	RJMP   = "RJMP"
	JMPT   = "JMPT"
	JMPF   = "JMPF"
	RJMPT  = "RJMPT"
	RJMPF  = "RJMPF"
	SET    = "SET"
	CALL   = "CALL"
	PRINT  = "PRINT"
	PRINTN = "PRINTN"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	// constants
	"true":  TRUE,
	"false": FALSE,
	"void":  VOID,
	"any":   ANY,

	// label terminator
	"end": END,

	// stack
	"push": PUSH,
	"pop":  POP,
	"peek": PEEK,

	// arithmetic
	"add": ADD,
	"sub": SUB,
	"mul": MUL,
	"div": DIV,
	"mod": MOD,

	// comparison
	"lt":  LT,
	"lte": LTE,
	"gt":  GT,
	"gte": GTE,
	"eq":  EQ,
	"neq": NEQ,

	// flow control
	"jmp":   JMP,
	"rjmp":  RJMP,
	"jmpt":  JMPT,
	"jmpf":  JMPF,
	"rjmpt": RJMPT,
	"rjmpf": RJMPF,
	"call":  CALL,

	// variables and output
	"set":    SET,
	"print":  PRINT,
	"printn": PRINTN,
}

// LookupIdent resolves a lowercased word to its keyword or instruction token
// type, falling back to IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsInstruction reports whether a token type names an executable instruction
// (as opposed to a literal, identifier or structural token).
func IsInstruction(t TokenType) bool {
	switch t {
	case PUSH, POP, PEEK,
		ADD, SUB, MUL, DIV, MOD,
		LT, LTE, GT, GTE, EQ, NEQ,
		JMP, RJMP, JMPT, JMPF, RJMPT, RJMPF,
		SET, CALL, PRINT, PRINTN:
		return true
	}
	return false
}
