// Package lang implements the scfg configuration language: a small
// interpreter that turns script text into a live tree of typed, named values.
//
// # Data model
//
// A [Tree] owns an arena of [Scope] values. Each scope maps unique names to
// [Entry] values and refers to its enclosing scope by [ScopeID]; only the
// global scope has no parent. An entry is one of:
//
//   - Number: a float64
//   - String: text
//   - Struct: owns a child scope
//   - Array: ordered elements sharing one type
//   - Function: parameter names and an unevaluated body, or a host function
//   - Linked: proxies reads and writes to host storage (see [LinkVar])
//   - Placeholder: a reserved name whose type is not yet known
//
// # Grammar
//
// Informal EBNF:
//
//	Script     → Statement* EOF
//	Statement  → ';'
//	           | Identifier '(' Params? ')' '=' Expression ';'
//	           | Reference '=' '{' Statement* '}' ';'?
//	           | Reference '=' Expression ';'
//	Reference  → ('@' | DotRun)? Identifier (DotRun Identifier | '[' Expression ']')*
//	Expression → Operand ('+' Operand)*
//	Operand    → Primary (':' Identifier)*
//	Primary    → Number | Char | String | '-' Operand | '(' Expression ')'
//	           | '[' (Expression (',' Expression)*)? ']'
//	           | Identifier '(' Args? ')' | Reference
//	           | ('@' | DotRun)? ':'
//
// Comments start with "//" or "#" and run to the end of the line, or are
// enclosed in "/*" and "*/".
//
// # Example
//
//	// Global values
//	name = "scfg";
//	size = 10;
//	grid = [1, 2, 3];
//
//	server = {
//	  port = 8080;
//	  name = ..name + "-server";   # the name in the enclosing scope
//	  url  = "http://localhost:" + port:string;
//	};
//
//	double(x) = x + x;
//	total = double(@server.port);
//	keys  = server:names;          # ["name", "port", "url"]
//
// # Scoping
//
// A plain name is looked up in the current scope and then outward through
// each enclosing scope when read, but only in the current scope when
// assigned, so assigning to an outer name declares a shadowing entry. A
// leading run of N dots starts the lookup N-1 scopes up and disables the
// outward search; '@' starts at the global scope.
//
// # Assignment
//
// Assigning to a new name promotes its placeholder to the value's type.
// Assigning to an existing name requires the same type and overwrites the
// value in place; a mismatch is reported at the start of the statement.
// Assigning a reference always copies, so entries never alias.
//
// # Diagnostics
//
// A failed [Tree.Load] returns [Diagnostics]. With [WithErrorLimit] above one,
// processing resumes at the next statement after each error until the limit
// is reached.
package lang
