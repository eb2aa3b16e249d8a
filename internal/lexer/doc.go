// File: doc.go
// Title: Statement Lexer Package Documentation
// Description: Lexical analyzer for bexpr statements. Converts one input
//              line into a stream of classified tokens, one token per pull.
// Author: msto63
// Version: v0.1.0
// Created: 2025-04-22
// Modified: 2025-04-22
//
// Change History:
// - 2025-04-22 v0.1.0: Initial lexer implementation

/*
Package lexer provides the lexical analysis stage of bexpr.

A Lexer owns a cursor into the current input line. Every call to NextToken
skips leading whitespace, classifies the lexeme starting at the cursor and
advances the cursor by exactly the lexeme's length:

	lx := lexer.New("12+34;")
	for tok := lx.NextToken(); tok.Category != lexer.EndOfLine; tok = lx.NextToken() {
		fmt.Println(tok.Lexeme, tok.Category)
	}

Characters that do not start any lexeme are returned as INVALID tokens of
length one. Classification never fails; reporting INVALID tokens is the
caller's job.
*/
package lexer
