// Package imports extracts top-level imported module names from Python source.
//
// Sources are parsed with tree-sitter's Python grammar. Every import statement
// in the file counts, including those nested in function bodies, conditionals
// and try blocks:
//
//	import a.b, c as d        -> a, c
//	from x.y import z         -> x
//	from .util import helper  -> util
//	from . import helper      -> (nothing)
//	from __future__ import annotations -> __future__
//
// A file that cannot be read, is not valid UTF-8, exceeds the configured size
// limit, or contains any syntax error contributes no names. The failure is
// returned in [FileImports.Err] so callers can log it and move on.
package imports
